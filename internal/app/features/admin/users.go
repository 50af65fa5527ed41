// internal/app/features/admin/users.go
package admin

import (
	"net/http"

	"github.com/dalemusser/codeswitch/internal/app/features/shared"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/authz"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ListUsers returns every account, newest first.
// GET /admin/users?skip=&limit=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	win := paging.Parse(r, usersPageSize, usersPageSize)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Users.List(ctx, win.Skip, win.Limit)
	if err != nil {
		h.ErrLog.Respond(w, r, "list users failed", err)
		return
	}
	jsonio.OK(w, out)
}

type toggleAdminResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	Message  string `json:"message"`
}

// ToggleAdmin flips another user's admin flag.
// PUT /admin/users/{id}/toggle-admin
func (h *Handler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, "toggle admin", apperr.Unauthorized("sign in required"))
		return
	}
	target, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse user id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.ToggleAdmin(ctx, actor, target)
	if err != nil {
		h.ErrLog.Respond(w, r, "toggle admin failed", err)
		return
	}

	h.Audit.AdminToggled(ctx, r, actor, u.ID, u.IsAdmin)

	msg := "admin status revoked"
	if u.IsAdmin {
		msg = "admin status granted"
	}
	h.Log.Info("admin status changed",
		zap.String("actor_id", actor.Hex()),
		zap.String("user_id", u.ID.Hex()),
		zap.Bool("is_admin", u.IsAdmin))
	jsonio.OK(w, toggleAdminResponse{
		UserID:   u.ID.Hex(),
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
		Message:  msg,
	})
}

// ListProjects returns every project, published or not.
// GET /admin/projects?skip=&limit=
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Projects.ListAll(ctx, paging.Parse(r, usersPageSize, usersPageSize))
	if err != nil {
		h.ErrLog.Respond(w, r, "list projects failed", err)
		return
	}
	jsonio.OK(w, out)
}
