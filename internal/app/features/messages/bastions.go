// internal/app/features/messages/bastions.go
package messages

import (
	"net/http"
	"strings"

	"github.com/dalemusser/codeswitch/internal/app/features/shared"
	bastionstore "github.com/dalemusser/codeswitch/internal/app/store/bastions"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/authz"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ListBastions returns public bastions. Tags may be repeated or comma
// separated.
// GET /messages/bastions?search=&tags=&skip=&limit=
func (h *Handler) ListBastions(w http.ResponseWriter, r *http.Request) {
	var tags []string
	for _, v := range r.URL.Query()["tags"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Bastions.ListPublic(ctx, bastionstore.PublicFilter{
		Search: shared.StringQuery(r, "search"),
		Tags:   tags,
	}, paging.Default(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "list bastions failed", err)
		return
	}
	uid, signedIn := authz.UserID(r)
	jsonio.OK(w, viewBastions(out, uid, signedIn))
}

// MyBastions returns the bastions the caller belongs to.
// GET /messages/bastions/my
func (h *Handler) MyBastions(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Bastions.ListForUser(ctx, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "list my bastions failed", err)
		return
	}
	jsonio.OK(w, viewBastions(out, uid, true))
}

type createBastionRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsPrivate   bool     `json:"is_private"`
	MaxMembers  int      `json:"max_members"`
	Tags        []string `json:"tags"`
}

// CreateBastion opens a bastion with the caller as its first member.
// POST /messages/bastions
func (h *Handler) CreateBastion(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r)
	if !ok {
		return
	}
	var req createBastionRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode bastion", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	b, err := h.Bastions.Create(ctx, uid, bastionstore.NewBastion(req))
	if err != nil {
		h.ErrLog.Respond(w, r, "create bastion failed", err)
		return
	}
	h.Log.Info("bastion created", zap.String("bastion_id", b.ID.Hex()), zap.String("user_id", uid.Hex()))
	jsonio.Write(w, http.StatusCreated, viewBastion(&b, uid, true))
}

// JoinBastion adds the caller. Joining twice is not an error.
// POST /messages/bastions/{id}/join
func (h *Handler) JoinBastion(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.memberAndID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	outcome, err := h.Bastions.Join(ctx, id, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "join bastion failed", err)
		return
	}
	if outcome == bastionstore.Declined {
		h.ErrLog.Respond(w, r, "join bastion declined", apperr.BadRequest("bastion is full"))
		return
	}
	jsonio.OK(w, map[string]bool{
		"joined":         true,
		"already_member": outcome == bastionstore.AlreadyMember,
	})
}

// LeaveBastion removes the caller.
// POST /messages/bastions/{id}/leave
func (h *Handler) LeaveBastion(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.memberAndID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Bastions.Leave(ctx, id, uid); err != nil {
		h.ErrLog.Respond(w, r, "leave bastion failed", err)
		return
	}
	jsonio.OK(w, map[string]bool{"left": true})
}

// BastionMessages returns a page of messages and marks the bastion read.
// GET /messages/bastions/{id}/messages?skip=&limit=
func (h *Handler) BastionMessages(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.memberAndID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Bastions.ListMessages(ctx, id, uid, paging.Parse(r, messagePageSize, paging.MaxLimit))
	if err != nil {
		h.ErrLog.Respond(w, r, "list bastion messages failed", err)
		return
	}
	jsonio.OK(w, out)
}

// SendBastionMessage posts to a bastion the caller belongs to.
// POST /messages/bastions/{id}/messages
func (h *Handler) SendBastionMessage(w http.ResponseWriter, r *http.Request) {
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

	m, err := h.Bastions.Send(ctx, id, in.sender, in.msg)
	if err != nil {
		h.ErrLog.Respond(w, r, "send bastion message failed", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, m)
}

// ReadBastion zeroes the caller's unread counter.
// POST /messages/bastions/{id}/read
func (h *Handler) ReadBastion(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.memberAndID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Bastions.MarkRead(ctx, id, uid); err != nil {
		h.ErrLog.Respond(w, r, "mark bastion read failed", err)
		return
	}
	jsonio.OK(w, map[string]int{"unread_count": 0})
}
