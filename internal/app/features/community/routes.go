// internal/app/features/community/routes.go
package community

import (
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Get("/posts", h.List)
	r.Get("/posts/{id}", h.Show)
	r.Get("/posts/{id}/comments", h.Comments)
	r.Get("/comments/{id}/replies", h.Replies)
	r.Get("/stats", h.Stats)
	r.Get("/categories", h.Categories)
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireMember)
		r.Post("/posts", h.Create)
		r.Put("/posts/{id}", h.Update)
		r.Post("/posts/{id}/like", h.Like)
		r.Post("/posts/{id}/solve", h.Solve)
		r.Post("/posts/{id}/comments", h.CreateComment)
		r.Post("/comments/{id}/like", h.CommentLike)
	})
	return r
}
