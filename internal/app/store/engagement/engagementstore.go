// Package engagementstore applies like/bookmark toggles to any document
// that keeps a set of user ids and, optionally, a counter beside it.
package engagementstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/domain/engagement"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxAttempts bounds retries when another request flips the same
// membership between our read and our write.
const maxAttempts = 5

// Target names the set (and counter) a toggle operates on.
type Target struct {
	Collection    string
	SetField      string
	CountField    string // empty when the set has no counter
	ActivityField string // bumped on add when non-empty
	Label         string // used in NotFound messages
}

var (
	BlogPostLikes         = Target{Collection: "blog_posts", SetField: "liked_by", CountField: "likes", Label: "post"}
	BlogPostBookmarks     = Target{Collection: "blog_posts", SetField: "bookmarked_by", Label: "post"}
	BlogCommentLikes      = Target{Collection: "blog_comments", SetField: "liked_by", CountField: "likes", Label: "comment"}
	CommunityPostLikes    = Target{Collection: "community_posts", SetField: "liked_by", CountField: "likes", ActivityField: "last_activity", Label: "post"}
	CommunityCommentLikes = Target{Collection: "community_comments", SetField: "liked_by", CountField: "likes", Label: "comment"}
)

type Store struct {
	db  *mongo.Database
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, now: time.Now}
}

// Toggle flips user's membership in the target set of document id and
// returns the new state and total. The set and counter change in one
// conditional update, so likes always equals len(liked_by).
func (s *Store) Toggle(ctx context.Context, t Target, id, user primitive.ObjectID) (engagement.Result, error) {
	c := s.db.Collection(t.Collection)
	proj := bson.M{t.SetField: 1}
	if t.CountField != "" {
		proj[t.CountField] = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var cur bson.Raw
		err := c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(proj)).Decode(&cur)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return engagement.Result{}, apperr.NotFound(label(t) + " not found")
		}
		if err != nil {
			return engagement.Result{}, fmt.Errorf("load %s: %w", t.Collection, err)
		}

		active := engagement.Contains(idSet(cur, t.SetField), user)
		filter, update := s.flip(t, id, user, active)

		var next bson.Raw
		err = c.FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().
				SetProjection(proj).
				SetReturnDocument(options.After)).Decode(&next)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue // lost a race; re-read and decide again
		}
		if err != nil {
			return engagement.Result{}, fmt.Errorf("toggle %s.%s: %w", t.Collection, t.SetField, err)
		}

		set := idSet(next, t.SetField)
		total := len(set)
		if t.CountField != "" {
			total = intField(next, t.CountField)
		}
		return engagement.Result{Active: !active, Total: total}, nil
	}
	return engagement.Result{}, fmt.Errorf("toggle %s.%s: too much contention", t.Collection, t.SetField)
}

func (s *Store) flip(t Target, id, user primitive.ObjectID, active bool) (bson.M, bson.M) {
	if active {
		filter := bson.M{"_id": id, t.SetField: user}
		update := bson.M{"$pull": bson.M{t.SetField: user}}
		if t.CountField != "" {
			update["$inc"] = bson.M{t.CountField: -1}
		}
		return filter, update
	}

	filter := bson.M{"_id": id, t.SetField: bson.M{"$ne": user}}
	update := bson.M{"$push": bson.M{t.SetField: user}}
	if t.CountField != "" {
		update["$inc"] = bson.M{t.CountField: 1}
	}
	if t.ActivityField != "" {
		update["$set"] = bson.M{t.ActivityField: s.now().UTC()}
	}
	return filter, update
}

func label(t Target) string {
	if t.Label == "" {
		return "document"
	}
	return t.Label
}

func idSet(doc bson.Raw, field string) []primitive.ObjectID {
	v, err := doc.LookupErr(field)
	if err != nil || v.Type != bsontype.Array {
		return nil
	}
	vals, err := v.Array().Values()
	if err != nil {
		return nil
	}
	out := make([]primitive.ObjectID, 0, len(vals))
	for _, el := range vals {
		if oid, ok := el.ObjectIDOK(); ok {
			out = append(out, oid)
		}
	}
	return out
}

func intField(doc bson.Raw, field string) int {
	v, err := doc.LookupErr(field)
	if err != nil {
		return 0
	}
	if n, ok := v.AsInt64OK(); ok {
		return int(n)
	}
	return 0
}
