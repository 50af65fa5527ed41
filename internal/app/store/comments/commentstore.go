// Package commentstore persists threaded comments. Blog and community
// comments share the shape but live in separate collections.
package commentstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BlogCollection      = "blog_comments"
	CommunityCollection = "community_comments"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database, collection string) *Store {
	return &Store{c: db.Collection(collection)}
}

// Insert stores c with a fresh id and zeroed counters.
func (s *Store) Insert(ctx context.Context, c models.Comment) (models.Comment, error) {
	c.ID = primitive.NewObjectID()
	c.Likes = 0
	c.LikedBy = []primitive.ObjectID{}
	c.RepliesCount = 0
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

// CheckParent verifies parent is a comment on post.
func (s *Store) CheckParent(ctx context.Context, post, parent primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": parent, "post_id": post}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check parent: %w", err)
	}
	if n == 0 {
		return apperr.BadRequest("parent comment not found on this post")
	}
	return nil
}

// BumpReplies increments parent's reply counter.
func (s *Store) BumpReplies(ctx context.Context, parent primitive.ObjectID) error {
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": parent}, bson.M{"$inc": bson.M{"replies_count": 1}}); err != nil {
		return fmt.Errorf("bump replies: %w", err)
	}
	return nil
}

// ListTop returns top-level comments on post, newest first.
func (s *Store) ListTop(ctx context.Context, post primitive.ObjectID, w paging.Window) ([]models.Comment, error) {
	opts := w.Apply(options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	cur, err := s.c.Find(ctx, bson.M{"post_id": post, "parent_id": nil}, opts)
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return out, nil
}

// Replies returns the direct replies to parent, oldest first.
func (s *Store) Replies(ctx context.Context, parent primitive.ObjectID, w paging.Window) ([]models.Comment, error) {
	opts := w.Apply(options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	cur, err := s.c.Find(ctx, bson.M{"parent_id": parent}, opts)
	if err != nil {
		return nil, fmt.Errorf("find replies: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode replies: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, err
	}
	return &c, nil
}
