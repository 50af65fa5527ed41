// internal/app/features/community/handler.go
package community

import (
	"net/http"

	uierrors "github.com/dalemusser/codeswitch/internal/app/features/errors"
	"github.com/dalemusser/codeswitch/internal/app/features/shared"
	communitystore "github.com/dalemusser/codeswitch/internal/app/store/community"
	engagementstore "github.com/dalemusser/codeswitch/internal/app/store/engagement"
	userstore "github.com/dalemusser/codeswitch/internal/app/store/users"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/authz"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/presence"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Kicker asks the trending job for an early run.
type Kicker interface {
	Kick()
}

type Handler struct {
	Posts      *communitystore.Store
	Users      *userstore.Store
	Engagement *engagementstore.Store
	Presence   presence.Service
	Trending   Kicker // may be nil
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger

	usersColl *mongo.Collection
}

func NewHandler(db *mongo.Database, pres presence.Service, trending Kicker, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if pres == nil {
		pres = presence.None{}
	}
	return &Handler{
		Posts:      communitystore.New(db),
		Users:      userstore.New(db),
		Engagement: engagementstore.New(db),
		Presence:   pres,
		Trending:   trending,
		Log:        logger,
		ErrLog:     errLog,
		usersColl:  db.Collection("users"),
	}
}

func (h *Handler) member(w http.ResponseWriter, r *http.Request, action string) (primitive.ObjectID, bool) {
	uid, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, action, apperr.Unauthorized("sign in to "+action))
		return primitive.NilObjectID, false
	}
	return uid, true
}

// List returns posts, pinned first, then by latest activity.
// GET /community/posts?post_type=&category=&search=&trending_only=&unanswered_only=&solved_only=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Posts.List(ctx, communitystore.ListFilter{
		PostType:       shared.StringQuery(r, "post_type"),
		Category:       shared.StringQuery(r, "category"),
		Search:         shared.StringQuery(r, "search"),
		TrendingOnly:   shared.BoolQuery(r, "trending_only"),
		UnansweredOnly: shared.BoolQuery(r, "unanswered_only"),
		SolvedOnly:     shared.BoolQuery(r, "solved_only"),
	}, paging.Default(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "list community posts failed", err)
		return
	}
	jsonio.OK(w, out)
}

// Show returns one post and counts the view.
// GET /community/posts/{id}
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse post id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Posts.View(ctx, id)
	if err != nil {
		h.ErrLog.Respond(w, r, "load community post failed", err)
		return
	}
	jsonio.OK(w, p)
}

type createRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	PostType string   `json:"post_type"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Image    string   `json:"image"`
}

// Create posts under the caller's name and nudges the trending job.
// POST /community/posts
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r, "post")
	if !ok {
		return
	}
	var req createRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode community post", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	author, err := h.Users.Snapshot(ctx, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "load author failed", err)
		return
	}
	p, err := h.Posts.Create(ctx, communitystore.NewPost(req), author)
	if err != nil {
		h.ErrLog.Respond(w, r, "create community post failed", err)
		return
	}
	if h.Trending != nil {
		h.Trending.Kick()
	}
	h.Log.Info("community post created",
		zap.String("post_id", p.ID.Hex()),
		zap.String("post_type", p.PostType),
		zap.String("user_id", uid.Hex()))
	jsonio.Write(w, http.StatusCreated, p)
}

type updateRequest struct {
	Title    *string  `json:"title"`
	Content  *string  `json:"content"`
	Category *string  `json:"category"`
	Tags     []string `json:"tags"`
	Image    *string  `json:"image"`
}

// Update edits a post. Only its author may do so.
// PUT /community/posts/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r, "edit posts")
	if !ok {
		return
	}
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse post id", err)
		return
	}
	var req updateRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode community post", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Posts.Update(ctx, id, uid, communitystore.PostUpdate(req))
	if err != nil {
		h.ErrLog.Respond(w, r, "update community post failed", err)
		return
	}
	jsonio.OK(w, p)
}

type likeResponse struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"total_likes"`
}

// Like toggles the caller's like on a post.
// POST /community/posts/{id}/like
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, engagementstore.CommunityPostLikes)
}

// CommentLike toggles the caller's like on a comment.
// POST /community/comments/{id}/like
func (h *Handler) CommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, engagementstore.CommunityCommentLikes)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, t engagementstore.Target) {
	uid, ok := h.member(w, r, "like")
	if !ok {
		return
	}
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Engagement.Toggle(ctx, t, id, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "toggle like failed", err)
		return
	}
	jsonio.OK(w, likeResponse{Liked: res.Active, TotalLikes: res.Total})
}

// Solve marks the caller's question solved.
// POST /community/posts/{id}/solve
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r, "mark posts solved")
	if !ok {
		return
	}
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse post id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Posts.MarkSolved(ctx, id, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "mark solved failed", err)
		return
	}
	jsonio.OK(w, map[string]any{"solved": p.IsSolved, "post": p})
}

// Comments lists top-level comments on a post.
// GET /community/posts/{id}/comments
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse post id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Posts.ListComments(ctx, id, paging.Default(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "list comments failed", err)
		return
	}
	jsonio.OK(w, out)
}

// Replies lists the replies under a comment.
// GET /community/comments/{id}/replies
func (h *Handler) Replies(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse comment id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Posts.ListReplies(ctx, id, paging.Default(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "list replies failed", err)
		return
	}
	jsonio.OK(w, out)
}

type commentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
}

// CreateComment replies to a post, or to a comment when parent_id is set.
// POST /community/posts/{id}/comments
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r, "comment")
	if !ok {
		return
	}
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "parse post id", err)
		return
	}
	var req commentRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode comment", err)
		return
	}
	var parent *primitive.ObjectID
	if req.ParentID != "" {
		pid, err := shared.ParseObjectID("parent_id", req.ParentID)
		if err != nil {
			h.ErrLog.Respond(w, r, "parse parent id", err)
			return
		}
		parent = &pid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	author, err := h.Users.Snapshot(ctx, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "load author failed", err)
		return
	}
	c, err := h.Posts.CreateComment(ctx, id, parent, req.Content, author)
	if err != nil {
		h.ErrLog.Respond(w, r, "create comment failed", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, c)
}

// Stats returns the community header numbers.
// GET /community/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	out, err := h.Posts.FetchStats(ctx, h.usersColl, h.Presence)
	if err != nil {
		h.ErrLog.Respond(w, r, "community stats failed", err)
		return
	}
	jsonio.OK(w, out)
}

// Categories lists categories in use.
// GET /community/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Posts.Categories(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "list community categories failed", err)
		return
	}
	jsonio.OK(w, out)
}
