package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/codeswitch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test data directly, bypassing store validation.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database { return f.db }

// CreateUser inserts a level-1 user with the given username.
func (f *Fixtures) CreateUser(ctx context.Context, username string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:                primitive.NewObjectID(),
		Username:          username,
		UsernameCI:        text.Fold(username),
		Email:             username + "@test.com",
		FullName:          "Test " + username,
		XP:                0,
		Level:             1,
		Badges:            []models.Badge{},
		CompletedProjects: []primitive.ObjectID{},
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin inserts a user with is_admin set.
func (f *Fixtures) CreateAdmin(ctx context.Context, username string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, username)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"is_admin": true}}); err != nil {
		f.t.Fatalf("failed to promote test admin: %v", err)
	}
	u.IsAdmin = true
	return u
}

// CreateCommunityPost inserts a post with the given counters and activity.
func (f *Fixtures) CreateCommunityPost(ctx context.Context, author models.User, postType string, likes, replies, views int, lastActivity time.Time) models.CommunityPost {
	f.t.Helper()
	p := models.CommunityPost{
		ID:           primitive.NewObjectID(),
		Title:        "Post by " + author.Username,
		Content:      "Some community content",
		PostType:     postType,
		Category:     "general",
		Tags:         []string{},
		Author:       models.AuthorSnapshot{UserID: author.ID, Name: author.FullName, Level: author.Level},
		Likes:        likes,
		Replies:      replies,
		Views:        views,
		LikedBy:      []primitive.ObjectID{},
		LastActivity: lastActivity,
		CreatedAt:    lastActivity,
		UpdatedAt:    lastActivity,
	}
	if _, err := f.db.Collection("community_posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create community post: %v", err)
	}
	return p
}

// CreateBlogPost inserts a published blog post.
func (f *Fixtures) CreateBlogPost(ctx context.Context, author models.User, title string) models.BlogPost {
	f.t.Helper()
	now := time.Now().UTC()
	p := models.BlogPost{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Excerpt:      "An excerpt for " + title,
		Content:      "Body of " + title,
		Category:     "tutorials",
		Tags:         []string{},
		Published:    true,
		Author:       models.AuthorSnapshot{UserID: author.ID, Name: author.FullName, Level: author.Level},
		ReadTime:     "1 min",
		LikedBy:      []primitive.ObjectID{},
		BookmarkedBy: []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("blog_posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create blog post: %v", err)
	}
	return p
}

// CreateProject inserts a published project with a single step.
func (f *Fixtures) CreateProject(ctx context.Context, creator models.User, title string, xpReward int) models.Project {
	f.t.Helper()
	now := time.Now().UTC()
	p := models.Project{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: "Build " + title + " step by step",
		Language:    "javascript",
		Difficulty:  "beginner",
		Type:        "guided",
		XPReward:    xpReward,
		Tags:        []string{},
		Steps:       []models.ProjectStep{{ID: "s1", Title: "Start", Order: 1}},
		CreatedBy:   creator.ID,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create project: %v", err)
	}
	return p
}
