// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.With(gate.RequireSignedIn).Get("/me", h.Me)
	r.With(gate.RequireMember).Put("/me", h.UpdateMe)
	r.Get("/{id}", h.Show)
	return r
}
