package communitystore

import (
	"context"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/system/presence"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// Stats is the community header summary.
type Stats struct {
	TotalPosts   int64 `json:"total_posts"`
	TotalMembers int64 `json:"total_members"`
	OnlineNow    int   `json:"online_now"`
	SolvedToday  int64 `json:"solved_today"`
}

// FetchStats runs the counts concurrently. Online users come from the
// presence service, never from stored state.
func (s *Store) FetchStats(ctx context.Context, users *mongo.Collection, pres presence.Service) (Stats, error) {
	var out Stats
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.c.CountDocuments(gctx, bson.M{})
		out.TotalPosts = n
		return err
	})
	g.Go(func() error {
		n, err := users.CountDocuments(gctx, bson.M{})
		out.TotalMembers = n
		return err
	})
	g.Go(func() error {
		n, err := s.c.CountDocuments(gctx, bson.M{"is_solved": true, "solved_at": bson.M{"$gte": midnight}})
		out.SolvedToday = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	if pres != nil {
		out.OnlineNow = pres.OnlineCount(ctx)
	}
	return out, nil
}
