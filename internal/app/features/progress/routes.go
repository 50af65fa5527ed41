// internal/app/features/progress/routes.go
package progress

import (
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireSignedIn)
	r.Get("/", h.List)
	r.Get("/{projectID}", h.Show)
	r.With(gate.RequireMember).Post("/", h.Create)
	r.With(gate.RequireMember).Put("/{projectID}", h.Update)
	return r
}
