package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/dalemusser/codeswitch/internal/domain/models"
)

// WithUser injects u as the signed-in caller, bypassing token checks.
func WithUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.FullName,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	})
}

// WithGuest injects a guest caller.
func WithGuest(r *http.Request) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{Name: "Guest", IsGuest: true})
}

// NewRequest creates a request without a body.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request with v encoded as the JSON body.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body io.Reader
	if v != nil {
		b, _ := json.Marshal(v)
		body = bytes.NewReader(b)
	}
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// DecodeJSON decodes a recorder body into v.
func DecodeJSON(rec *httptest.ResponseRecorder, v any) error {
	return json.NewDecoder(rec.Body).Decode(v)
}
