// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the admin feature. Every route requires an admin.
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireAdmin)
	r.Get("/dashboard", h.Dashboard)
	r.Get("/users", h.ListUsers)
	r.Put("/users/{id}/toggle-admin", h.ToggleAdmin)
	r.Get("/projects", h.ListProjects)
	r.Get("/audit", h.ListAudit)
	return r
}
