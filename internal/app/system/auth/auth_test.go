package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"go.uber.org/zap"
)

type stubFetcher map[string]*auth.SessionUser

func (f stubFetcher) FetchUser(_ context.Context, id string) *auth.SessionUser {
	return f[id]
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newGate(t *testing.T) (*auth.Gate, *auth.Tokens) {
	t.Helper()
	tok, err := auth.NewTokens("test-secret-key-0123456789", time.Hour, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	g := auth.NewGate(tok, zap.NewNop())
	g.SetUserFetcher(stubFetcher{
		"u1":    {ID: "u1", Name: "Ada"},
		"admin": {ID: "admin", Name: "Root", IsAdmin: true},
	})
	return g, tok
}

func serve(g *auth.Gate, guard func(http.Handler) http.Handler, token string) int {
	h := g.LoadSessionUser(guard(okHandler()))
	req := httptest.NewRequest("POST", "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireMember(t *testing.T) {
	g, tok := newGate(t)
	user, _, _ := tok.Issue("u1")
	guest, _, _ := tok.IssueGuest()
	unknown, _, _ := tok.Issue("nobody")

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"guest", guest, http.StatusUnauthorized},
		{"unknown user", unknown, http.StatusUnauthorized},
		{"user", user, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(g, g.RequireMember, tt.token); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequireSignedIn_AdmitsGuest(t *testing.T) {
	g, tok := newGate(t)
	guest, _, _ := tok.IssueGuest()
	if got := serve(g, g.RequireSignedIn, guest); got != http.StatusOK {
		t.Errorf("status = %d, want 200", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	g, tok := newGate(t)
	user, _, _ := tok.Issue("u1")
	admin, _, _ := tok.Issue("admin")
	guest, _, _ := tok.IssueGuest()

	if got := serve(g, g.RequireAdmin, user); got != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", got)
	}
	if got := serve(g, g.RequireAdmin, guest); got != http.StatusUnauthorized {
		t.Errorf("guest status = %d, want 401", got)
	}
	if got := serve(g, g.RequireAdmin, admin); got != http.StatusOK {
		t.Errorf("admin status = %d, want 200", got)
	}
}

func TestCurrentUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := auth.CurrentUser(req); ok {
		t.Fatal("expected no user")
	}
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "abc", Name: "Ada"})
	u, ok := auth.CurrentUser(req)
	if !ok || u.ID != "abc" {
		t.Fatalf("CurrentUser() = %+v, %v", u, ok)
	}
}
