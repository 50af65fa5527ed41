// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"go.uber.org/zap"
)

// detail is the error body every API failure uses.
type detail struct {
	Detail string `json:"detail"`
}

// ErrorLogger writes error responses for handlers and logs the ones that
// are the server's fault.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Respond maps err to a status and writes {"detail": ...}. Domain errors
// carry their own message; anything else is logged with msg and answered
// with a generic 500.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		e.LogServerError(w, r, msg, err)
		return
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	jsonio.Write(w, status, detail{Detail: apperr.Message(err)})
}

// LogServerError logs err with request context and writes a 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if u, ok := auth.CurrentUser(r); ok && !u.IsGuest {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	e.log.Error(msg, fields...)
	jsonio.Write(w, http.StatusInternalServerError, detail{Detail: "internal server error"})
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	jsonio.Write(w, http.StatusNotFound, detail{Detail: "not found"})
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonio.Write(w, http.StatusMethodNotAllowed, detail{Detail: "method not allowed"})
}
