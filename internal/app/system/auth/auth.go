package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"go.uber.org/zap"
)

// SessionUser is the caller as seen by handlers. Guests have IsGuest set and
// an empty ID.
type SessionUser struct {
	ID      string
	Name    string
	Email   string
	IsAdmin bool
	IsGuest bool
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the caller and whether one was resolved.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects u directly. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// UserFetcher loads the current state of a user. It returns nil when the
// user does not exist or is inactive.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// Gate resolves bearer tokens into a SessionUser and guards routes.
type Gate struct {
	verifier Verifier
	fetcher  UserFetcher
	log      *zap.Logger
}

func NewGate(v Verifier, logger *zap.Logger) *Gate {
	return &Gate{verifier: v, log: logger}
}

// SetUserFetcher makes LoadSessionUser re-read the user on every request
// so admin and active flags take effect immediately.
func (g *Gate) SetUserFetcher(f UserFetcher) {
	g.fetcher = f
}

// LoadSessionUser attaches the caller to the request context when a valid
// bearer token is present. Requests without one continue anonymously.
func (g *Gate) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := g.verifier.Verify(raw)
		if err != nil {
			g.log.Debug("bearer token rejected", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if id.Guest {
			next.ServeHTTP(w, withUser(r, &SessionUser{Name: "Guest", IsGuest: true}))
			return
		}
		u := &SessionUser{ID: id.Subject}
		if g.fetcher != nil {
			u = g.fetcher.FetchUser(r.Context(), id.Subject)
			if u == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn admits users and guests.
func (g *Gate) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			deny(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMember admits registered users only. Guests get 401.
func (g *Gate) RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			deny(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		if u.IsGuest {
			deny(w, http.StatusUnauthorized, "guests cannot perform this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin admits users whose stored is_admin flag is set.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok || u.IsGuest {
			deny(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		if !u.IsAdmin {
			deny(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, status int, msg string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	jsonio.Write(w, status, map[string]string{"detail": msg})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
