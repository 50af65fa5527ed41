// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/languages", h.Languages)
	r.Get("/categories", h.Categories)
	r.Get("/{id}", h.Show)
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireMember)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
	})
	return r
}
