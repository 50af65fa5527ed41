// internal/app/features/profile/handler.go
package profile

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/codeswitch/internal/app/features/errors"
	"github.com/dalemusser/codeswitch/internal/app/features/shared"
	userstore "github.com/dalemusser/codeswitch/internal/app/store/users"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/authz"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"github.com/dalemusser/codeswitch/internal/domain/leveling"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the user profile endpoints.
type Handler struct {
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  userstore.New(db),
		Log:    logger,
		ErrLog: errLog,
	}
}

// meResponse is the signed-in user's own view: the full record plus the
// derived badge name.
type meResponse struct {
	*models.User
	Badge string `json:"badge"`
}

type guestMe struct {
	FullName string `json:"full_name"`
	IsGuest  bool   `json:"is_guest"`
}

// publicProfile is what other users may see.
type publicProfile struct {
	ID                primitive.ObjectID   `json:"id"`
	Username          string               `json:"username"`
	FullName          string               `json:"full_name"`
	AvatarURL         string               `json:"avatar_url"`
	XP                int                  `json:"xp"`
	Level             int                  `json:"level"`
	Badge             string               `json:"badge"`
	Badges            []models.Badge       `json:"badges"`
	CompletedProjects []primitive.ObjectID `json:"completed_projects"`
	CreatedAt         time.Time            `json:"created_at"`
}

// Me returns the caller.
// GET /users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if authz.IsGuest(r) {
		jsonio.OK(w, guestMe{FullName: "Guest", IsGuest: true})
		return
	}
	id, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, "me", apperr.Unauthorized("could not validate credentials"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Respond(w, r, "load current user failed", err)
		return
	}
	jsonio.OK(w, meResponse{User: u, Badge: leveling.Badge(u.Level)})
}

type updateRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateMe edits the caller's name and avatar.
// PUT /users/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, "update me", apperr.Unauthorized("guests cannot perform this action"))
		return
	}
	var req updateRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode profile body", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, id, userstore.ProfileUpdate{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "update profile failed", err)
		return
	}
	jsonio.OK(w, meResponse{User: u, Badge: leveling.Badge(u.Level)})
}

// Show returns another user's public profile.
// GET /users/{id}
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse user id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Respond(w, r, "load user failed", err)
		return
	}
	jsonio.OK(w, publicProfile{
		ID:                u.ID,
		Username:          u.Username,
		FullName:          u.FullName,
		AvatarURL:         u.Avatar(),
		XP:                u.XP,
		Level:             u.Level,
		Badge:             leveling.Badge(u.Level),
		Badges:            u.Badges,
		CompletedProjects: u.CompletedProjects,
		CreatedAt:         u.CreatedAt,
	})
}
