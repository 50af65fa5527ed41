// internal/app/features/messages/handler.go
package messages

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeswitch/internal/app/features/errors"
	"github.com/dalemusser/codeswitch/internal/app/features/shared"
	bastionstore "github.com/dalemusser/codeswitch/internal/app/store/bastions"
	conversationstore "github.com/dalemusser/codeswitch/internal/app/store/conversations"
	messagestore "github.com/dalemusser/codeswitch/internal/app/store/messages"
	userstore "github.com/dalemusser/codeswitch/internal/app/store/users"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/authz"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Message pages are larger than catalog pages.
const messagePageSize = 50

// Handler serves direct conversations, bastions and message reactions.
// Every route requires a signed-in member.
type Handler struct {
	Conversations *conversationstore.Store
	Bastions      *bastionstore.Store
	Messages      *messagestore.Store
	Users         *userstore.Store
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Conversations: conversationstore.New(db),
		Bastions:      bastionstore.New(db),
		Messages:      messagestore.New(db),
		Users:         userstore.New(db),
		Log:           logger,
		ErrLog:        errLog,
	}
}

func (h *Handler) member(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	uid, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, "messaging", apperr.Unauthorized("sign in to use messages"))
		return primitive.NilObjectID, false
	}
	return uid, true
}

// memberAndID resolves the caller and the {id} URL parameter.
func (h *Handler) memberAndID(w http.ResponseWriter, r *http.Request) (uid, id primitive.ObjectID, ok bool) {
	uid, ok = h.member(w, r)
	if !ok {
		return
	}
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse id", err)
		return uid, id, false
	}
	return uid, id, true
}

type sendRequest struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	Language    string `json:"language"`
}

type sendInput struct {
	msg    messagestore.NewMessage
	sender models.AuthorSnapshot
}

func (h *Handler) decodeSend(w http.ResponseWriter, r *http.Request, uid primitive.ObjectID) (sendInput, bool) {
	var req sendRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode message", err)
		return sendInput{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sender, err := h.Users.Snapshot(ctx, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "load sender failed", err)
		return sendInput{}, false
	}
	return sendInput{
		msg:    messagestore.NewMessage(req),
		sender: sender,
	}, true
}

// ListConversations returns the caller's conversations.
// GET /messages/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cs, err := h.Conversations.ListForUser(ctx, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "list conversations failed", err)
		return
	}
	jsonio.OK(w, viewConversations(cs, uid))
}

type createConversationRequest struct {
	Name             string   `json:"name"`
	ConversationType string   `json:"conversation_type"`
	Participants     []string `json:"participants"`
}

// CreateConversation starts a conversation, or returns the existing direct
// conversation between the same people.
// POST /messages/conversations
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r)
	if !ok {
		return
	}
	var req createConversationRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode conversation", err)
		return
	}
	participants := make([]primitive.ObjectID, 0, len(req.Participants))
	for _, hex := range req.Participants {
		id, err := shared.ParseObjectID("participants", hex)
		if err != nil {
			h.ErrLog.Respond(w, r, "parse participant", err)
			return
		}
		participants = append(participants, id)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, created, err := h.Conversations.Create(ctx, uid, conversationstore.NewConversation{
		Name:         req.Name,
		Type:         req.ConversationType,
		Participants: participants,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "create conversation failed", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	jsonio.Write(w, status, viewConversation(c, uid))
}

// ShowConversation returns one conversation.
// GET /messages/conversations/{id}
func (h *Handler) ShowConversation(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.memberAndID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Conversations.GetForUser(ctx, id, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "load conversation failed", err)
		return
	}
	jsonio.OK(w, viewConversation(c, uid))
}

// ConversationMessages returns a page of messages in chronological order
// and marks the conversation read.
// GET /messages/conversations/{id}/messages?skip=&limit=
func (h *Handler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.memberAndID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Conversations.ListMessages(ctx, id, uid, paging.Parse(r, messagePageSize, paging.MaxLimit))
	if err != nil {
		h.ErrLog.Respond(w, r, "list messages failed", err)
		return
	}
	jsonio.OK(w, out)
}

// SendConversationMessage posts a message.
// POST /messages/conversations/{id}/messages
func (h *Handler) SendConversationMessage(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.memberAndID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeSend(w, r, uid)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	m, err := h.Conversations.Send(ctx, id, in.sender, in.msg)
	if err != nil {
		h.ErrLog.Respond(w, r, "send message failed", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, m)
}

// ReadConversation zeroes the caller's unread counter.
// POST /messages/conversations/{id}/read
func (h *Handler) ReadConversation(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.memberAndID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Conversations.MarkRead(ctx, id, uid); err != nil {
		h.ErrLog.Respond(w, r, "mark conversation read failed", err)
		return
	}
	jsonio.OK(w, map[string]int{"unread_count": 0})
}

type reactRequest struct {
	Emoji string `json:"emoji"`
}

// React toggles the caller's emoji on a message. The emoji comes from the
// query string or a JSON body.
// POST /messages/messages/{id}/react?emoji=
func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.memberAndID(w, r)
	if !ok {
		return
	}
	emoji := shared.StringQuery(r, "emoji")
	if emoji == "" && r.ContentLength != 0 {
		var req reactRequest
		if err := jsonio.Decode(r, &req); err != nil {
			h.ErrLog.Respond(w, r, "decode reaction", err)
			return
		}
		emoji = req.Emoji
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	msg, err := h.Messages.Get(ctx, id)
	if err != nil {
		h.ErrLog.Respond(w, r, "load message failed", err)
		return
	}
	if err := h.canSee(ctx, msg.ConversationID, uid); err != nil {
		h.ErrLog.Respond(w, r, "react", err)
		return
	}
	out, err := h.Messages.ToggleReaction(ctx, id, uid, emoji)
	if err != nil {
		h.ErrLog.Respond(w, r, "toggle reaction failed", err)
		return
	}
	jsonio.OK(w, out)
}

// canSee checks the caller belongs to the thread a message was sent to,
// which is either a conversation or a bastion.
func (h *Handler) canSee(ctx context.Context, thread, uid primitive.ObjectID) error {
	isConv, err := h.Conversations.Exists(ctx, thread)
	if err != nil {
		return err
	}
	if isConv {
		_, err = h.Conversations.GetForUser(ctx, thread, uid)
		return err
	}
	_, err = h.Bastions.GetForMember(ctx, thread, uid)
	return err
}
