// internal/app/features/blog/handler.go
package blog

import (
	"net/http"

	uierrors "github.com/dalemusser/codeswitch/internal/app/features/errors"
	"github.com/dalemusser/codeswitch/internal/app/features/shared"
	blogstore "github.com/dalemusser/codeswitch/internal/app/store/blog"
	engagementstore "github.com/dalemusser/codeswitch/internal/app/store/engagement"
	userstore "github.com/dalemusser/codeswitch/internal/app/store/users"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/authz"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Posts      *blogstore.Store
	Users      *userstore.Store
	Engagement *engagementstore.Store
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Posts:      blogstore.New(db),
		Users:      userstore.New(db),
		Engagement: engagementstore.New(db),
		Log:        logger,
		ErrLog:     errLog,
	}
}

type likeResponse struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"total_likes"`
}

type bookmarkResponse struct {
	Bookmarked bool `json:"bookmarked"`
}

// member resolves the caller's id, rejecting guests.
func (h *Handler) member(w http.ResponseWriter, r *http.Request, action string) (primitive.ObjectID, bool) {
	uid, ok := authz.UserID(r)
	if !ok {
		h.ErrLog.Respond(w, r, action, apperr.Unauthorized("sign in to "+action))
		return primitive.NilObjectID, false
	}
	return uid, true
}

// List returns published posts, newest first.
// GET /blog/posts?category=&search=&featured=&skip=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Posts.List(ctx, blogstore.ListFilter{
		Category:     shared.StringQuery(r, "category"),
		Search:       shared.StringQuery(r, "search"),
		FeaturedOnly: shared.BoolQuery(r, "featured"),
	}, paging.Default(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "list blog posts failed", err)
		return
	}
	jsonio.OK(w, out)
}

// Show returns one post and counts the view.
// GET /blog/posts/{id}
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
		h.ErrLog.Respond(w, r, "load blog post failed", err)
		return
	}
	jsonio.OK(w, p)
}

type createRequest struct {
	Title     string   `json:"title"`
	Excerpt   string   `json:"excerpt"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Image     string   `json:"image"`
	Featured  bool     `json:"featured"`
	Published *bool    `json:"published"`
}

// Create publishes a post under the caller's name.
// POST /blog/posts
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r, "write posts")
	if !ok {
		return
	}
	var req createRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode blog post", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	author, err := h.Users.Snapshot(ctx, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "load author failed", err)
		return
	}
	p, err := h.Posts.Create(ctx, blogstore.NewPost(req), author)
	if err != nil {
		h.ErrLog.Respond(w, r, "create blog post failed", err)
		return
	}
	h.Log.Info("blog post created", zap.String("post_id", p.ID.Hex()), zap.String("user_id", uid.Hex()))
	jsonio.Write(w, http.StatusCreated, p)
}

type updateRequest struct {
	Title     *string  `json:"title"`
	Excerpt   *string  `json:"excerpt"`
	Content   *string  `json:"content"`
	Category  *string  `json:"category"`
	Tags      []string `json:"tags"`
	Image     *string  `json:"image"`
	Featured  *bool    `json:"featured"`
	Published *bool    `json:"published"`
}

// Update edits a post. Only its author may do so.
// PUT /blog/posts/{id}
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
		h.ErrLog.Respond(w, r, "decode blog post", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Posts.Update(ctx, id, uid, blogstore.PostUpdate(req))
	if err != nil {
		h.ErrLog.Respond(w, r, "update blog post failed", err)
		return
	}
	jsonio.OK(w, p)
}

// Like toggles the caller's like on a post.
// POST /blog/posts/{id}/like
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, engagementstore.BlogPostLikes, "like posts")
}

// CommentLike toggles the caller's like on a comment.
// POST /blog/comments/{id}/like
func (h *Handler) CommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, engagementstore.BlogCommentLikes, "like comments")
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, t engagementstore.Target, action string) {
	uid, ok := h.member(w, r, action)
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

// Bookmark toggles the caller's bookmark on a post.
// POST /blog/posts/{id}/bookmark
func (h *Handler) Bookmark(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.member(w, r, "save posts")
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

	res, err := h.Engagement.Toggle(ctx, engagementstore.BlogPostBookmarks, id, uid)
	if err != nil {
		h.ErrLog.Respond(w, r, "toggle bookmark failed", err)
		return
	}
	jsonio.OK(w, bookmarkResponse{Bookmarked: res.Active})
}

// Comments lists top-level comments on a post.
// GET /blog/posts/{id}/comments
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
// GET /blog/comments/{id}/replies
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

// CreateComment adds a comment, or a reply when parent_id is set.
// POST /blog/posts/{id}/comments
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

// Categories lists categories of published posts.
// GET /blog/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Posts.Categories(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "list blog categories failed", err)
		return
	}
	jsonio.OK(w, out)
}
