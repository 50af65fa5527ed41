package conversationstore_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	conversationstore "github.com/dalemusser/codeswitch/internal/app/store/conversations"
	messagestore "github.com/dalemusser/codeswitch/internal/app/store/messages"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/indexes"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"github.com/dalemusser/codeswitch/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func snap(u models.User) models.AuthorSnapshot {
	return models.AuthorSnapshot{UserID: u.ID, Name: u.FullName, Avatar: u.Avatar(), Level: 1}
}

func TestStore_Create_DirectDedup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := conversationstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "alice")
	b := fixtures.CreateUser(ctx, "bobby")

	first, created, err := store.Create(ctx, a.ID, conversationstore.NewConversation{Participants: []primitive.ObjectID{b.ID}})
	if err != nil || !created {
		t.Fatalf("Create: created=%v err=%v", created, err)
	}
	again, created, err := store.Create(ctx, b.ID, conversationstore.NewConversation{Participants: []primitive.ObjectID{a.ID, b.ID}})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if created || again.ID != first.ID {
		t.Errorf("expected the existing conversation back, got new=%v id=%s", created, again.ID.Hex())
	}
}

func TestStore_Create_ConcurrentDirectDedup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := conversationstore.New(db)
	fixtures := testutil.NewFixtures(t, db)

	a := fixtures.CreateUser(ctx, "alice")
	b := fixtures.CreateUser(ctx, "bobby")

	const n = 6
	ids := make([]primitive.ObjectID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, _, err := store.Create(ctx, a.ID, conversationstore.NewConversation{Participants: []primitive.ObjectID{b.ID}})
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			ids[i] = c.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("concurrent creates produced different conversations: %v", ids)
		}
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := conversationstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "alice")

	if _, _, err := store.Create(ctx, a.ID, conversationstore.NewConversation{Participants: []primitive.ObjectID{a.ID}}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("self-only: expected BadRequest, got %v", err)
	}
	if _, _, err := store.Create(ctx, a.ID, conversationstore.NewConversation{Participants: []primitive.ObjectID{primitive.NewObjectID()}}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown participant: expected NotFound, got %v", err)
	}
}

func TestStore_Send_Ledger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := conversationstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "alice")
	b := fixtures.CreateUser(ctx, "bobby")
	c := fixtures.CreateUser(ctx, "carol")
	outsider := fixtures.CreateUser(ctx, "mallory")

	conv, _, err := store.Create(ctx, a.ID, conversationstore.NewConversation{
		Type:         models.ConversationDirect,
		Participants: []primitive.ObjectID{b.ID, c.ID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	long := strings.Repeat("z", 120)
	if _, err := store.Send(ctx, conv.ID, snap(a), messagestore.NewMessage{Content: long}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := store.Send(ctx, conv.ID, snap(b), messagestore.NewMessage{Content: "reply"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := store.GetForUser(ctx, conv.ID, a.ID)
	if err != nil {
		t.Fatalf("GetForUser: %v", err)
	}
	want := map[primitive.ObjectID]int{a.ID: 1, b.ID: 1, c.ID: 2}
	for id, n := range want {
		if got.UnreadCount[id.Hex()] != n {
			t.Errorf("unread for %s = %d, want %d", id.Hex(), got.UnreadCount[id.Hex()], n)
		}
	}
	if got.LastMessage != "reply" || got.LastMessageTime == nil {
		t.Errorf("last message = %q %v", got.LastMessage, got.LastMessageTime)
	}

	if _, err := store.Send(ctx, conv.ID, snap(outsider), messagestore.NewMessage{Content: "let me in"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("outsider send: expected Forbidden, got %v", err)
	}
	if _, err := store.Send(ctx, primitive.NewObjectID(), snap(a), messagestore.NewMessage{Content: "hello"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing conversation: expected NotFound, got %v", err)
	}
}

func TestStore_Send_FailedLedgerStoresNoMessage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := conversationstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "alice")
	b := fixtures.CreateUser(ctx, "bobby")
	conv, _, err := store.Create(ctx, a.ID, conversationstore.NewConversation{
		Type:         models.ConversationDirect,
		Participants: []primitive.ObjectID{b.ID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A boolean still decodes as a count but cannot be incremented.
	if _, err := db.Collection("conversations").UpdateOne(ctx,
		bson.M{"_id": conv.ID},
		bson.M{"$set": bson.M{"unread_count." + b.ID.Hex(): true}}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	if _, err := store.Send(ctx, conv.ID, snap(a), messagestore.NewMessage{Content: "hello"}); err == nil {
		t.Fatal("expected Send to fail when the ledger cannot be updated")
	}
	n, err := db.Collection("messages").CountDocuments(ctx, bson.M{"conversation_id": conv.ID})
	if err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no stored message, got %d", n)
	}
}

func TestStore_ListMessages_MarksRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := conversationstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "alice")
	b := fixtures.CreateUser(ctx, "bobby")
	conv, _, err := store.Create(ctx, a.ID, conversationstore.NewConversation{Participants: []primitive.ObjectID{b.ID}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, body := range []string{"one", "two"} {
		if _, err := store.Send(ctx, conv.ID, snap(a), messagestore.NewMessage{Content: body}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	msgs, err := store.ListMessages(ctx, conv.ID, b.ID, paging.Window{Limit: 50})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "one" {
		t.Errorf("unexpected messages: %+v", msgs)
	}

	got, _ := store.GetForUser(ctx, conv.ID, b.ID)
	if got.UnreadCount[b.ID.Hex()] != 0 {
		t.Errorf("expected unread reset, got %d", got.UnreadCount[b.ID.Hex()])
	}

	if err := store.MarkRead(ctx, conv.ID, fixtures.CreateUser(ctx, "mallory").ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("outsider MarkRead: expected Forbidden, got %v", err)
	}
}
