// internal/app/features/admin/audit.go
package admin

import (
	"net/http"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/features/shared"
	auditstore "github.com/dalemusser/codeswitch/internal/app/store/audit"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
)

type auditResponse struct {
	Total  int64              `json:"total"`
	Events []auditstore.Event `json:"events"`
}

// ListAudit returns audit events, newest first.
// GET /admin/audit?category=&event_type=&user_id=&since=&skip=&limit=
//
// since is RFC 3339.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	f := auditstore.QueryFilter{
		Category:  shared.StringQuery(r, "category"),
		EventType: shared.StringQuery(r, "event_type"),
	}
	if v := shared.StringQuery(r, "user_id"); v != "" {
		id, err := shared.ParseObjectID("user_id", v)
		if err != nil {
			h.ErrLog.Respond(w, r, "parse user_id", err)
			return
		}
		f.UserID = &id
	}
	if v := shared.StringQuery(r, "since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.ErrLog.Respond(w, r, "parse since", apperr.BadRequest("since must be RFC 3339"))
			return
		}
		f.Since = &t
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	total, err := h.Events.Count(ctx, f)
	if err != nil {
		h.ErrLog.Respond(w, r, "count audit events failed", err)
		return
	}
	events, err := h.Events.Query(ctx, f, paging.Parse(r, usersPageSize, usersPageSize))
	if err != nil {
		h.ErrLog.Respond(w, r, "list audit events failed", err)
		return
	}
	jsonio.OK(w, auditResponse{Total: total, Events: events})
}
