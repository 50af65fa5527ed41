// Package jsonio reads and writes JSON bodies for the API handlers.
package jsonio

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
)

// MaxBody caps request bodies read by Decode.
const MaxBody = 1 << 20

// Write sends v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK is Write with 200.
func OK(w http.ResponseWriter, v any) { Write(w, http.StatusOK, v) }

// Decode reads a JSON body into v. Malformed or oversized bodies yield a
// BadRequest error.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("request body is empty")
		}
		return apperr.BadRequest("invalid JSON body")
	}
	return nil
}
