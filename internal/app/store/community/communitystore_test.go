package communitystore_test

import (
	"errors"
	"testing"
	"time"

	commentstore "github.com/dalemusser/codeswitch/internal/app/store/comments"
	communitystore "github.com/dalemusser/codeswitch/internal/app/store/community"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/app/system/presence"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"github.com/dalemusser/codeswitch/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func snapshot(u models.User) models.AuthorSnapshot {
	return models.AuthorSnapshot{UserID: u.ID, Name: u.FullName, Avatar: u.Avatar(), Level: 1, Badge: "Newcomer"}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "asker")
	p, err := store.Create(ctx, communitystore.NewPost{
		Title:    "How do channels work?",
		Content:  "I am confused about buffered channels.",
		PostType: models.PostTypeQuestion,
		Category: "go",
	}, snapshot(author))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Likes != 0 || p.Replies != 0 || p.IsSolved || p.IsTrending {
		t.Errorf("new post should start clean: %+v", p)
	}
	if p.LastActivity.IsZero() {
		t.Error("expected last_activity to be set")
	}

	_, err = store.Create(ctx, communitystore.NewPost{
		Title: "Valid title", Content: "Valid content here", PostType: "rant", Category: "go",
	}, snapshot(author))
	if !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("expected BadRequest for unknown post type, got %v", err)
	}
}

func TestStore_List_PinnedFirstThenActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "poster")
	now := time.Now().UTC()
	old := fixtures.CreateCommunityPost(ctx, author, models.PostTypeDiscussion, 0, 0, 0, now.Add(-2*time.Hour))
	recent := fixtures.CreateCommunityPost(ctx, author, models.PostTypeQuestion, 0, 3, 0, now.Add(-time.Minute))
	pinned := fixtures.CreateCommunityPost(ctx, author, models.PostTypeShowcase, 0, 0, 0, now.Add(-10*time.Hour))
	if _, err := db.Collection("community_posts").UpdateByID(ctx, pinned.ID, bson.M{"$set": bson.M{"is_pinned": true}}); err != nil {
		t.Fatalf("pin: %v", err)
	}

	got, err := store.List(ctx, communitystore.ListFilter{}, paging.Window{Limit: 20})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []primitive.ObjectID{pinned.ID, recent.ID, old.ID}
	if len(got) != len(want) {
		t.Fatalf("got %d posts", len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("position %d: got %s want %s", i, got[i].ID.Hex(), want[i].Hex())
		}
	}

	unanswered, err := store.List(ctx, communitystore.ListFilter{UnansweredOnly: true}, paging.Window{Limit: 20})
	if err != nil {
		t.Fatalf("List unanswered failed: %v", err)
	}
	if len(unanswered) != 2 {
		t.Errorf("expected 2 unanswered posts, got %d", len(unanswered))
	}
}

func TestStore_MarkSolved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "asker")
	other := fixtures.CreateUser(ctx, "helper")
	q := fixtures.CreateCommunityPost(ctx, author, models.PostTypeQuestion, 0, 0, 0, time.Now().UTC())
	show := fixtures.CreateCommunityPost(ctx, author, models.PostTypeShowcase, 0, 0, 0, time.Now().UTC())

	if _, err := store.MarkSolved(ctx, q.ID, other.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("non-author: expected Forbidden, got %v", err)
	}
	if _, err := store.MarkSolved(ctx, show.ID, author.ID); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("showcase: expected BadRequest, got %v", err)
	}
	if _, err := store.MarkSolved(ctx, primitive.NewObjectID(), author.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing: expected NotFound, got %v", err)
	}

	got, err := store.MarkSolved(ctx, q.ID, author.ID)
	if err != nil {
		t.Fatalf("MarkSolved failed: %v", err)
	}
	if !got.IsSolved || got.SolvedAt == nil {
		t.Errorf("expected solved with solved_at, got %+v", got)
	}
	again, err := store.MarkSolved(ctx, q.ID, author.ID)
	if err != nil || !again.IsSolved {
		t.Errorf("second MarkSolved should be a no-op, got %v %v", again, err)
	}
}

func TestStore_CreateComment_BumpsRepliesAndActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "asker")
	old := time.Now().Add(-48 * time.Hour).UTC().Truncate(time.Millisecond)
	p := fixtures.CreateCommunityPost(ctx, author, models.PostTypeQuestion, 0, 0, 0, old)

	if _, err := store.CreateComment(ctx, p.ID, nil, "Try a buffered channel", snapshot(author)); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	got, err := store.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Replies != 1 {
		t.Errorf("replies = %d", got.Replies)
	}
	if !got.LastActivity.After(old) {
		t.Error("expected last_activity to advance")
	}
}

func TestStore_CreateComment_BadParentLeavesCountersAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "asker")
	old := time.Now().Add(-48 * time.Hour).UTC().Truncate(time.Millisecond)
	p := fixtures.CreateCommunityPost(ctx, author, models.PostTypeQuestion, 0, 0, 0, old)
	other := fixtures.CreateCommunityPost(ctx, author, models.PostTypeDiscussion, 0, 0, 0, old)

	foreign, err := store.CreateComment(ctx, other.ID, nil, "On the other thread", snapshot(author))
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	missing := primitive.NewObjectID()

	for name, parent := range map[string]primitive.ObjectID{"missing": missing, "other post": foreign.ID} {
		parent := parent
		if _, err := store.CreateComment(ctx, p.ID, &parent, "reply", snapshot(author)); !errors.Is(err, apperr.ErrBadRequest) {
			t.Errorf("%s parent: expected BadRequest, got %v", name, err)
		}
	}

	got, err := store.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Replies != 0 {
		t.Errorf("replies = %d, want 0", got.Replies)
	}
	if !got.LastActivity.Equal(old) {
		t.Errorf("last_activity moved to %v", got.LastActivity)
	}

	n, err := db.Collection(commentstore.CommunityCollection).CountDocuments(ctx, bson.M{"post_id": p.ID})
	if err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no stored comments on post, got %d", n)
	}
	var parent models.Comment
	if err := db.Collection(commentstore.CommunityCollection).FindOne(ctx, bson.M{"_id": foreign.ID}).Decode(&parent); err != nil {
		t.Fatalf("load foreign comment: %v", err)
	}
	if parent.RepliesCount != 0 {
		t.Errorf("foreign comment replies_count = %d", parent.RepliesCount)
	}
}

func TestStore_RecomputeTrending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "poster")
	now := time.Now().UTC()

	// scores: hot 12, cold 5, stale is outside the window
	hot := fixtures.CreateCommunityPost(ctx, author, models.PostTypeDiscussion, 8, 2, 0, now.Add(-time.Hour))
	cold := fixtures.CreateCommunityPost(ctx, author, models.PostTypeDiscussion, 2, 1, 10, now.Add(-time.Hour))
	stale := fixtures.CreateCommunityPost(ctx, author, models.PostTypeDiscussion, 50, 0, 0, now.Add(-30*time.Hour))
	if _, err := db.Collection("community_posts").UpdateByID(ctx, stale.ID, bson.M{"$set": bson.M{"is_trending": true}}); err != nil {
		t.Fatalf("seed flag: %v", err)
	}

	n, err := store.RecomputeTrending(ctx, now)
	if err != nil {
		t.Fatalf("RecomputeTrending failed: %v", err)
	}
	if n != 1 {
		t.Errorf("marked %d posts, want 1", n)
	}

	for id, want := range map[primitive.ObjectID]bool{hot.ID: true, cold.ID: false, stale.ID: false} {
		p, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if p.IsTrending != want {
			t.Errorf("post %s trending = %v, want %v", id.Hex(), p.IsTrending, want)
		}
	}
}

func TestStore_FetchStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "asker")
	fixtures.CreateUser(ctx, "lurker")
	q := fixtures.CreateCommunityPost(ctx, author, models.PostTypeQuestion, 0, 0, 0, time.Now().UTC())
	fixtures.CreateCommunityPost(ctx, author, models.PostTypeShowcase, 0, 0, 0, time.Now().UTC())
	if _, err := store.MarkSolved(ctx, q.ID, author.ID); err != nil {
		t.Fatalf("MarkSolved: %v", err)
	}

	stats, err := store.FetchStats(ctx, db.Collection("users"), presence.None{})
	if err != nil {
		t.Fatalf("FetchStats failed: %v", err)
	}
	want := communitystore.Stats{TotalPosts: 2, TotalMembers: 2, OnlineNow: 0, SolvedToday: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}
