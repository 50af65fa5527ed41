// Package inputval holds small validators shared by stores and handlers.
// Failures are returned as apperr.BadRequest.
package inputval

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
)

// IsValidEmail reports whether s is a bare address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidHTTPURL reports whether s is an absolute http(s) URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Length checks that s has between min and max runes. max <= 0 means no
// upper bound.
func Length(field, s string, min, max int) error {
	n := utf8.RuneCountInString(s)
	switch {
	case max > 0 && (n < min || n > max):
		return apperr.BadRequest(fmt.Sprintf("%s must be %d-%d characters", field, min, max))
	case n < min:
		return apperr.BadRequest(fmt.Sprintf("%s must be at least %d characters", field, min))
	}
	return nil
}

// Range checks min <= v <= max.
func Range(field string, v, min, max int) error {
	if v < min || v > max {
		return apperr.BadRequest(fmt.Sprintf("%s must be between %d and %d", field, min, max))
	}
	return nil
}

// OneOf checks that v is one of allowed.
func OneOf(field, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return apperr.BadRequest(fmt.Sprintf("%s must be one of %s", field, strings.Join(allowed, ", ")))
}

// OptionalURL accepts an empty string or an http(s) URL.
func OptionalURL(field, s string) error {
	if strings.TrimSpace(s) == "" || IsValidHTTPURL(s) {
		return nil
	}
	return apperr.BadRequest(field + " must be an http(s) URL")
}
