// internal/app/features/projects/handler.go
package projects

import (
	"net/http"

	uierrors "github.com/dalemusser/codeswitch/internal/app/features/errors"
	"github.com/dalemusser/codeswitch/internal/app/features/shared"
	projectstore "github.com/dalemusser/codeswitch/internal/app/store/projects"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/authz"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the project catalog endpoints.
type Handler struct {
	Projects *projectstore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Projects: projectstore.New(db),
		Log:      logger,
		ErrLog:   errLog,
	}
}

// List returns published projects.
// GET /projects?language=&difficulty=&type=&search=&skip=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Projects.List(ctx, projectstore.ListFilter{
		Language:   shared.StringQuery(r, "language"),
		Difficulty: shared.StringQuery(r, "difficulty"),
		Type:       shared.StringQuery(r, "type"),
		Search:     shared.StringQuery(r, "search"),
	}, paging.Default(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "list projects failed", err)
		return
	}
	jsonio.OK(w, out)
}

// Show returns one project with its steps.
// GET /projects/{id}
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse project id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.Get(ctx, id)
	if err != nil {
		h.ErrLog.Respond(w, r, "load project failed", err)
		return
	}
	jsonio.OK(w, p)
}

type createRequest struct {
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	Language           string               `json:"language"`
	Difficulty         string               `json:"difficulty"`
	Type               string               `json:"type"`
	XPReward           int                  `json:"xp_reward"`
	EstimatedTime      string               `json:"estimated_time"`
	Tags               []string             `json:"tags"`
	ThumbnailURL       string               `json:"thumbnail_url"`
	LearningObjectives []string             `json:"learning_objectives"`
	Prerequisites      []string             `json:"prerequisites"`
	Steps              []models.ProjectStep `json:"steps"`
}

// Create adds a project owned by the caller.
// POST /projects
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, "create project", apperr.Unauthorized("guests cannot create projects"))
		return
	}
	var req createRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode project body", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Projects.Create(ctx, uid, projectstore.NewProject(req))
	if err != nil {
		h.ErrLog.Respond(w, r, "create project failed", err)
		return
	}
	h.Log.Info("project created", zap.String("project_id", p.ID.Hex()), zap.String("user_id", uid.Hex()))
	jsonio.Write(w, http.StatusCreated, p)
}

type updateRequest struct {
	Title              *string              `json:"title"`
	Description        *string              `json:"description"`
	Language           *string              `json:"language"`
	Difficulty         *string              `json:"difficulty"`
	Type               *string              `json:"type"`
	XPReward           *int                 `json:"xp_reward"`
	EstimatedTime      *string              `json:"estimated_time"`
	Tags               []string             `json:"tags"`
	ThumbnailURL       *string              `json:"thumbnail_url"`
	LearningObjectives []string             `json:"learning_objectives"`
	Prerequisites      []string             `json:"prerequisites"`
	Steps              []models.ProjectStep `json:"steps"`
	IsPublished        *bool                `json:"is_published"`
}

// Update edits a project. Only its creator may do so.
// PUT /projects/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, "update project", apperr.Unauthorized("guests cannot edit projects"))
		return
	}
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse project id", err)
		return
	}
	var req updateRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode project body", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Projects.Update(ctx, id, uid, projectstore.ProjectUpdate(req))
	if err != nil {
		h.ErrLog.Respond(w, r, "update project failed", err)
		return
	}
	jsonio.OK(w, p)
}

// Languages lists the languages of published projects.
// GET /projects/languages
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Projects.Languages(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "list project languages failed", err)
		return
	}
	jsonio.OK(w, out)
}

// Categories lists the project types in use.
// GET /projects/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Projects.Categories(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "list project categories failed", err)
		return
	}
	jsonio.OK(w, out)
}
