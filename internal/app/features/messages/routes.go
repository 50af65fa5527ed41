// internal/app/features/messages/routes.go
package messages

import (
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Get("/bastions", h.ListBastions)
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireMember)

		r.Get("/conversations", h.ListConversations)
		r.Post("/conversations", h.CreateConversation)
		r.Get("/conversations/{id}", h.ShowConversation)
		r.Get("/conversations/{id}/messages", h.ConversationMessages)
		r.Post("/conversations/{id}/messages", h.SendConversationMessage)
		r.Post("/conversations/{id}/read", h.ReadConversation)

		r.Get("/bastions/my", h.MyBastions)
		r.Post("/bastions", h.CreateBastion)
		r.Post("/bastions/{id}/join", h.JoinBastion)
		r.Post("/bastions/{id}/leave", h.LeaveBastion)
		r.Get("/bastions/{id}/messages", h.BastionMessages)
		r.Post("/bastions/{id}/messages", h.SendBastionMessage)
		r.Post("/bastions/{id}/read", h.ReadBastion)

		r.Post("/messages/{id}/react", h.React)
	})
	return r
}
