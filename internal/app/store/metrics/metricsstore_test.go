package metricsstore_test

import (
	"testing"
	"time"

	metricsstore "github.com/dalemusser/codeswitch/internal/app/store/metrics"
	"github.com/dalemusser/codeswitch/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, db, time.Now())

	if counts != (metricsstore.Counts{}) {
		t.Errorf("expected all zero counts, got %+v", counts)
	}
}

func TestFetchDashboardCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice")
	fixtures.CreateUser(ctx, "bobby")
	old := fixtures.CreateUser(ctx, "carol")
	if _, err := db.Collection("users").UpdateByID(ctx, old.ID,
		bson.M{"$set": bson.M{"created_at": time.Now().Add(-30 * 24 * time.Hour)}}); err != nil {
		t.Fatalf("backdate user: %v", err)
	}

	p1 := fixtures.CreateProject(ctx, alice, "Portfolio", 100)
	fixtures.CreateProject(ctx, alice, "Chat App", 200)
	if _, err := db.Collection("progress").InsertMany(ctx, []any{
		bson.M{"user_id": alice.ID, "project_id": p1.ID, "is_completed": true},
		bson.M{"user_id": old.ID, "project_id": p1.ID, "is_completed": false},
	}); err != nil {
		t.Fatalf("insert progress: %v", err)
	}

	fixtures.CreateBlogPost(ctx, alice, "Hello World")
	fixtures.CreateCommunityPost(ctx, alice, "question", 0, 0, 0, time.Now())

	counts := metricsstore.FetchDashboardCounts(ctx, db, time.Now())

	if counts.TotalUsers != 3 {
		t.Errorf("TotalUsers: got %d, want 3", counts.TotalUsers)
	}
	if counts.NewUsersLastWeek != 2 {
		t.Errorf("NewUsersLastWeek: got %d, want 2", counts.NewUsersLastWeek)
	}
	if counts.TotalProjects != 2 {
		t.Errorf("TotalProjects: got %d, want 2", counts.TotalProjects)
	}
	if counts.TotalCompletedProjects != 1 {
		t.Errorf("TotalCompletedProjects: got %d, want 1", counts.TotalCompletedProjects)
	}
	if counts.BlogPosts != 1 || counts.CommunityPosts != 1 {
		t.Errorf("posts: got blog=%d community=%d", counts.BlogPosts, counts.CommunityPosts)
	}
	if counts.Bastions != 0 {
		t.Errorf("Bastions: got %d, want 0", counts.Bastions)
	}
}
