package bastionstore_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	bastionstore "github.com/dalemusser/codeswitch/internal/app/store/bastions"
	messagestore "github.com/dalemusser/codeswitch/internal/app/store/messages"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"github.com/dalemusser/codeswitch/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBastion(max int) bastionstore.NewBastion {
	return bastionstore.NewBastion{
		Name:        "Go Gophers",
		Description: "A place for gophers to hang out",
		MaxMembers:  max,
		Tags:        []string{"Go"},
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bastionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	b, err := store.Create(ctx, creator, newBastion(0))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if b.MaxMembers != models.DefaultBastionMembers {
		t.Errorf("max_members = %d", b.MaxMembers)
	}
	if len(b.Members) != 1 || b.Members[0] != creator {
		t.Errorf("creator should be the only member: %v", b.Members)
	}
	if b.Avatar != models.DefaultBastionAvatar {
		t.Errorf("avatar = %q", b.Avatar)
	}

	for _, max := range []int{4, 16} {
		if _, err := store.Create(ctx, creator, newBastion(max)); !errors.Is(err, apperr.ErrBadRequest) {
			t.Errorf("max_members %d: expected BadRequest, got %v", max, err)
		}
	}
}

func TestStore_Join(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bastionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b, err := store.Create(ctx, primitive.NewObjectID(), newBastion(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var last primitive.ObjectID
	for i := 0; i < 4; i++ {
		last = primitive.NewObjectID()
		out, err := store.Join(ctx, b.ID, last)
		if err != nil || out != bastionstore.Joined {
			t.Fatalf("join %d: out=%v err=%v", i, out, err)
		}
	}

	out, err := store.Join(ctx, b.ID, last)
	if err != nil || out != bastionstore.AlreadyMember {
		t.Errorf("repeat join: out=%v err=%v", out, err)
	}

	out, err = store.Join(ctx, b.ID, primitive.NewObjectID())
	if err != nil || out != bastionstore.Declined {
		t.Errorf("full bastion: out=%v err=%v, want Declined", out, err)
	}
	got, _ := store.Get(ctx, b.ID)
	if len(got.Members) != 5 {
		t.Errorf("declined join changed members: %d", len(got.Members))
	}
	if _, err := store.Join(ctx, primitive.NewObjectID(), last); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing bastion: expected NotFound, got %v", err)
	}
}

func TestStore_Join_ConcurrentNeverOverfills(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bastionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b, err := store.Create(ctx, primitive.NewObjectID(), newBastion(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var joined int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if out, err := store.Join(ctx, b.ID, primitive.NewObjectID()); err == nil && out == bastionstore.Joined {
				atomic.AddInt32(&joined, 1)
			}
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Members) != 5 || joined != 4 {
		t.Errorf("members=%d joined=%d, want 5 and 4", len(got.Members), joined)
	}
}

func TestStore_Leave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bastionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	b, err := store.Create(ctx, creator, newBastion(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Leave(ctx, b.ID, creator); err != nil {
		t.Fatalf("creator Leave: %v", err)
	}
	got, _ := store.Get(ctx, b.ID)
	if len(got.Members) != 0 {
		t.Errorf("creator should be able to leave: %v", got.Members)
	}
	if err := store.Leave(ctx, b.ID, creator); err != nil {
		t.Errorf("leaving twice should be a no-op, got %v", err)
	}
	if err := store.Leave(ctx, primitive.NewObjectID(), creator); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestStore_Send_Ledger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bastionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	member := primitive.NewObjectID()
	b, err := store.Create(ctx, creator, newBastion(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Join(ctx, b.ID, member); err != nil {
		t.Fatalf("Join: %v", err)
	}

	from := models.AuthorSnapshot{UserID: creator, Name: "Creator"}
	for i := 0; i < 3; i++ {
		if _, err := store.Send(ctx, b.ID, from, messagestore.NewMessage{Content: fmt.Sprintf("msg %d", i)}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	got, _ := store.Get(ctx, b.ID)
	if got.UnreadCount[member.Hex()] != 3 || got.UnreadCount[creator.Hex()] != 0 {
		t.Errorf("unread = %v", got.UnreadCount)
	}

	msgs, err := store.ListMessages(ctx, b.ID, member, paging.Window{Limit: 50})
	if err != nil || len(msgs) != 3 {
		t.Fatalf("ListMessages: %d %v", len(msgs), err)
	}
	got, _ = store.Get(ctx, b.ID)
	if got.UnreadCount[member.Hex()] != 0 {
		t.Errorf("expected member unread reset, got %d", got.UnreadCount[member.Hex()])
	}

	outsider := models.AuthorSnapshot{UserID: primitive.NewObjectID()}
	if _, err := store.Send(ctx, b.ID, outsider, messagestore.NewMessage{Content: "hi"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("outsider send: expected Forbidden, got %v", err)
	}
}

func TestStore_Send_FailedLedgerStoresNoMessage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bastionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	member := primitive.NewObjectID()
	b, err := store.Create(ctx, creator, newBastion(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Join(ctx, b.ID, member); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := db.Collection("bastions").UpdateOne(ctx,
		bson.M{"_id": b.ID},
		bson.M{"$set": bson.M{"unread_count." + member.Hex(): true}}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	from := models.AuthorSnapshot{UserID: creator, Name: "Creator"}
	if _, err := store.Send(ctx, b.ID, from, messagestore.NewMessage{Content: "hi all"}); err == nil {
		t.Fatal("expected Send to fail when the ledger cannot be updated")
	}
	n, err := db.Collection("messages").CountDocuments(ctx, bson.M{"conversation_id": b.ID})
	if err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no stored message, got %d", n)
	}
}

func TestStore_ListPublic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bastionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	if _, err := store.Create(ctx, creator, newBastion(5)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	private := newBastion(5)
	private.Name = "Secret Club"
	private.IsPrivate = true
	if _, err := store.Create(ctx, creator, private); err != nil {
		t.Fatalf("Create private: %v", err)
	}

	got, err := store.ListPublic(ctx, bastionstore.PublicFilter{Search: "GOPHERS"}, paging.Window{Limit: 20})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Go Gophers" {
		t.Errorf("unexpected public bastions: %+v", got)
	}

	mine, err := store.ListForUser(ctx, creator)
	if err != nil || len(mine) != 2 {
		t.Errorf("ListForUser = %d, %v", len(mine), err)
	}
}
