// internal/app/features/progress/handler.go
package progress

import (
	"net/http"

	uierrors "github.com/dalemusser/codeswitch/internal/app/features/errors"
	"github.com/dalemusser/codeswitch/internal/app/features/shared"
	progressstore "github.com/dalemusser/codeswitch/internal/app/store/progress"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/authz"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Progress *progressstore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Progress: progressstore.New(db),
		Log:      logger,
		ErrLog:   errLog,
	}
}

// List returns the caller's progress records. Guests have none.
// GET /progress
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonio.OK(w, []models.Progress{})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Progress.ListForUser(ctx, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "list progress failed", err)
		return
	}
	jsonio.OK(w, out)
}

// Show returns the caller's progress on one project.
// GET /progress/{projectID}
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, "show progress", apperr.NotFound("guests have no saved progress"))
		return
	}
	pid, err := shared.ObjectIDParam(r, "projectID")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse project id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Progress.Get(ctx, uid, pid)
	if err != nil {
		h.ErrLog.Respond(w, r, "load progress failed", err)
		return
	}
	jsonio.OK(w, p)
}

type createRequest struct {
	ProjectID     string                `json:"project_id"`
	CurrentStep   int                   `json:"current_step"`
	StepsProgress []models.StepProgress `json:"steps_progress"`
}

// Create starts tracking a project for the caller.
// POST /progress
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, "create progress", apperr.Unauthorized("guests cannot save progress"))
		return
	}
	var req createRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode progress body", err)
		return
	}
	pid, err := shared.ParseObjectID("project_id", req.ProjectID)
	if err != nil {
		h.ErrLog.Respond(w, r, "parse project id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Progress.Create(ctx, uid, progressstore.NewProgress{
		ProjectID:     pid,
		CurrentStep:   req.CurrentStep,
		StepsProgress: req.StepsProgress,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "create progress failed", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, p)
}

type updateRequest struct {
	CurrentStep   *int                  `json:"current_step"`
	StepsProgress []models.StepProgress `json:"steps_progress"`
	IsCompleted   *bool                 `json:"is_completed"`
}

type updateResponse struct {
	*models.Progress
	XPAwarded int `json:"xp_awarded,omitempty"`
	UserXP    int `json:"user_xp,omitempty"`
	UserLevel int `json:"user_level,omitempty"`
}

// Update saves the caller's progress. The first completion pays out the
// project's XP reward and reports the new totals.
// PUT /progress/{projectID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, "update progress", apperr.Unauthorized("guests cannot save progress"))
		return
	}
	pid, err := shared.ObjectIDParam(r, "projectID")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse project id", err)
		return
	}
	var req updateRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode progress body", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Progress.Update(ctx, uid, pid, progressstore.ProgressUpdate(req))
	if err != nil {
		h.ErrLog.Respond(w, r, "update progress failed", err)
		return
	}

	out := updateResponse{Progress: res.Progress, XPAwarded: res.XPAwarded}
	if res.User != nil {
		out.UserXP, out.UserLevel = res.User.XP, res.User.Level
		h.Log.Info("project completed",
			zap.String("user_id", uid.Hex()),
			zap.String("project_id", pid.Hex()),
			zap.Int("xp_awarded", res.XPAwarded),
			zap.Int("level", res.User.Level))
	}
	jsonio.OK(w, out)
}
