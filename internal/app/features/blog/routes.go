// internal/app/features/blog/routes.go
package blog

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
	r.Get("/categories", h.Categories)
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireMember)
		r.Post("/posts", h.Create)
		r.Put("/posts/{id}", h.Update)
		r.Post("/posts/{id}/like", h.Like)
		r.Post("/posts/{id}/bookmark", h.Bookmark)
		r.Post("/posts/{id}/comments", h.CreateComment)
		r.Post("/comments/{id}/like", h.CommentLike)
	})
	return r
}
