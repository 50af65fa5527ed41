package messagestore_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	messagestore "github.com/dalemusser/codeswitch/internal/app/store/messages"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"github.com/dalemusser/codeswitch/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sender() models.AuthorSnapshot {
	return models.AuthorSnapshot{UserID: primitive.NewObjectID(), Name: "Sender", Avatar: models.DefaultAvatar}
}

func TestNewMessage_Validate(t *testing.T) {
	ok := messagestore.NewMessage{Content: "  hi  "}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if ok.Content != "hi" || ok.MessageType != models.MessageText {
		t.Errorf("unexpected normalized message: %+v", ok)
	}

	cases := []messagestore.NewMessage{
		{Content: "   "},
		{Content: strings.Repeat("x", 5001)},
		{Content: "hi", MessageType: "video"},
	}
	for _, in := range cases {
		if err := in.Validate(); !errors.Is(err, apperr.ErrBadRequest) {
			t.Errorf("Validate(%q, %q): expected BadRequest, got %v", in.Content, in.MessageType, err)
		}
	}
}

func TestLedgerUpdate(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now()
	up := messagestore.LedgerUpdate([]primitive.ObjectID{a, b}, strings.Repeat("y", 150), now, "updated_at")

	set := up["$set"].(bson.M)
	if got := set["last_message"].(string); len(got) != 103 || !strings.HasSuffix(got, "...") {
		t.Errorf("preview = %q", got)
	}
	if set["updated_at"] != now {
		t.Error("expected touch field to be set")
	}
	inc := up["$inc"].(bson.M)
	if inc["unread_count."+a.Hex()] != 1 || inc["unread_count."+b.Hex()] != 1 {
		t.Errorf("inc = %v", inc)
	}

	if _, ok := messagestore.LedgerUpdate(nil, "x", now)["$inc"]; ok {
		t.Error("no recipients should mean no $inc")
	}
}

func TestStore_ListByConversation_Chronological(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	thread := primitive.NewObjectID()
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, body := range []string{"first", "second", "third"} {
		m := messagestore.Build(thread, messagestore.NewMessage{Content: body, MessageType: models.MessageText}, sender(), base.Add(time.Duration(i)*time.Second))
		if _, err := store.Insert(ctx, m); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := store.ListByConversation(ctx, thread, paging.Window{Limit: 2})
	if err != nil {
		t.Fatalf("ListByConversation failed: %v", err)
	}
	if len(got) != 2 || got[0].Content != "second" || got[1].Content != "third" {
		t.Errorf("expected newest two in order, got %+v", got)
	}
}

func TestStore_ToggleReaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Insert(ctx, messagestore.Build(primitive.NewObjectID(),
		messagestore.NewMessage{Content: "hello", MessageType: models.MessageText}, sender(), time.Now().UTC()))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	u := primitive.NewObjectID()

	got, err := store.ToggleReaction(ctx, m.ID, u, "👍")
	if err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}
	if len(got.Reactions) != 1 || got.Reactions[0].Count != 1 {
		t.Errorf("after add: %+v", got.Reactions)
	}

	got, err = store.ToggleReaction(ctx, m.ID, u, "👍")
	if err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}
	if len(got.Reactions) != 0 {
		t.Errorf("empty reaction entries should be removed: %+v", got.Reactions)
	}

	if _, err := store.ToggleReaction(ctx, m.ID, u, " "); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("expected BadRequest for blank emoji, got %v", err)
	}
	if _, err := store.ToggleReaction(ctx, primitive.NewObjectID(), u, "👍"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestStore_ToggleReaction_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Insert(ctx, messagestore.Build(primitive.NewObjectID(),
		messagestore.NewMessage{Content: "popular", MessageType: models.MessageText}, sender(), time.Now().UTC()))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	const n = 4
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ToggleReaction(ctx, m.ID, primitive.NewObjectID(), "🔥"); err != nil {
				t.Errorf("ToggleReaction failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Reactions) != 1 || got.Reactions[0].Count != n || len(got.Reactions[0].Users) != n {
		t.Errorf("expected one entry with %d users, got %+v", n, got.Reactions)
	}
}
