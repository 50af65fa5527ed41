package communitystore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/system/txn"
	"github.com/dalemusser/codeswitch/internal/domain/trending"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecomputeTrending clears every trending flag and marks the posts chosen
// by trending.Select. Reset and mark share a transaction when the server
// supports one. It returns the number of posts marked.
func (s *Store) RecomputeTrending(ctx context.Context, now time.Time) (int, error) {
	since := now.Add(-trending.Window)
	opts := options.Find().SetProjection(bson.M{
		"likes": 1, "replies": 1, "views": 1, "last_activity": 1,
	})
	cur, err := s.c.Find(ctx, bson.M{"last_activity": bson.M{"$gte": since}}, opts)
	if err != nil {
		return 0, fmt.Errorf("load trending candidates: %w", err)
	}
	var cands []trending.Candidate
	if err := cur.All(ctx, &cands); err != nil {
		return 0, fmt.Errorf("decode trending candidates: %w", err)
	}

	ids := trending.Select(cands, now)

	err = txn.Run(ctx, s.client, func(ctx context.Context) error {
		if _, err := s.c.UpdateMany(ctx,
			bson.M{"is_trending": true},
			bson.M{"$set": bson.M{"is_trending": false}}); err != nil {
			return fmt.Errorf("reset trending: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := s.c.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": ids}},
			bson.M{"$set": bson.M{"is_trending": true}}); err != nil {
			return fmt.Errorf("mark trending: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
