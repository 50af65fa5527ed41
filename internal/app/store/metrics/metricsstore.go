package metricsstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// NewUserWindow is how far back NewUsersLastWeek looks.
const NewUserWindow = 7 * 24 * time.Hour

// Counts is the set of totals shown on the admin dashboard.
type Counts struct {
	TotalUsers             int64 `json:"total_users"`
	TotalProjects          int64 `json:"total_projects"`
	TotalCompletedProjects int64 `json:"total_completed_projects"`
	NewUsersLastWeek       int64 `json:"new_users_last_week"`
	BlogPosts              int64 `json:"blog_posts"`
	CommunityPosts         int64 `json:"community_posts"`
	Bastions               int64 `json:"bastions"`
}

// FetchDashboardCounts returns the high-level counts used by the admin
// dashboard. Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, now time.Time) Counts {
	var out Counts

	count := func(dst *int64, coll string, filter bson.M) func() error {
		return func() error {
			if n, err := db.Collection(coll).CountDocuments(ctx, filter); err == nil {
				*dst = n
			}
			return nil
		}
	}

	var g errgroup.Group
	g.Go(count(&out.TotalUsers, "users", bson.M{}))
	g.Go(count(&out.TotalProjects, "projects", bson.M{}))
	g.Go(count(&out.TotalCompletedProjects, "progress", bson.M{"is_completed": true}))
	g.Go(count(&out.NewUsersLastWeek, "users", bson.M{"created_at": bson.M{"$gte": now.Add(-NewUserWindow)}}))
	g.Go(count(&out.BlogPosts, "blog_posts", bson.M{}))
	g.Go(count(&out.CommunityPosts, "community_posts", bson.M{}))
	g.Go(count(&out.Bastions, "bastions", bson.M{}))
	_ = g.Wait()

	return out
}
