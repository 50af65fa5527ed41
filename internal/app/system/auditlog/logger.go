// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/codeswitch/internal/app/store/audit"
	"github.com/dalemusser/codeswitch/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for one category of events.
const (
	ModeAll = "all" // MongoDB and zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth covers sign-in, registration and guest tokens.
	Auth string
	// Admin covers admin status changes.
	Admin string
}

// ValidMode reports whether s is a recognised destination.
func ValidMode(s string) bool {
	switch s {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Logger writes audit events to the audit store and to zap.
// A nil *Logger is a no-op so handlers and tests can skip auditing.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an event to the destinations configured for its category.
// Store failures are logged, not returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := ModeAll
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if setting == ModeAll || setting == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func requestEvent(r *http.Request, category, eventType string) audit.Event {
	e := audit.Event{Category: category, EventType: eventType}
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Authentication Events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, login string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = &userID
	e.Success = true
	e.Details = map[string]string{"login": login}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attempted string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_login": attempted}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, login string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword)
	e.UserID = &userID
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"login": login}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedUserInactive(ctx context.Context, r *http.Request, userID primitive.ObjectID, login string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserInactive)
	e.UserID = &userID
	e.FailureReason = "account inactive"
	e.Details = map[string]string{"login": login}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, login, reason string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit)
	e.FailureReason = "rate limit exceeded"
	e.Details = map[string]string{"login": login, "limit": reason}
	l.Log(ctx, e)
}

func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventUserRegistered)
	e.UserID = &userID
	e.Success = true
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// GuestTokenIssued has no user: guests have no account.
func (l *Logger) GuestTokenIssued(ctx context.Context, r *http.Request) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventGuestTokenIssued)
	e.Success = true
	l.Log(ctx, e)
}

// --- Admin Events ---

// AdminToggled records an admin granting or revoking another user's admin flag.
func (l *Logger) AdminToggled(ctx context.Context, r *http.Request, actorID, targetID primitive.ObjectID, nowAdmin bool) {
	eventType := audit.EventAdminRevoked
	if nowAdmin {
		eventType = audit.EventAdminGranted
	}
	e := requestEvent(r, audit.CategoryAdmin, eventType)
	e.UserID = &targetID
	e.ActorID = &actorID
	e.Success = true
	l.Log(ctx, e)
}

// AdminPromoted records the startup promotion of the configured admin email.
func (l *Logger) AdminPromoted(ctx context.Context, email string) {
	e := requestEvent(nil, audit.CategoryAdmin, audit.EventAdminPromoted)
	e.Success = true
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}
