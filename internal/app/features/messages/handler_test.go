package messages_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/codeswitch/internal/app/features/errors"
	"github.com/dalemusser/codeswitch/internal/app/features/messages"
	"github.com/dalemusser/codeswitch/internal/app/system/indexes"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"github.com/dalemusser/codeswitch/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*messages.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	logger := zap.NewNop()
	return messages.NewHandler(db, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

func call(t *testing.T, fn http.HandlerFunc, req *http.Request, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, req)
	if out != nil {
		if err := testutil.DecodeJSON(rec, out); err != nil {
			t.Fatalf("decode: %v (body %s)", err, rec.Body.String())
		}
	}
	return rec.Code
}

func withID(r *http.Request, id string) *http.Request {
	return testutil.WithChiURLParam(r, "id", id)
}

func TestConversation_Flow(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice")
	bob := fixtures.CreateUser(ctx, "bob")

	body := map[string]any{"participants": []string{bob.ID.Hex()}}
	var conv map[string]any
	if code := call(t, h.CreateConversation, testutil.WithUser(testutil.NewJSONRequest("POST", "/x", body), alice), &conv); code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	convID := conv["id"].(string)

	var again map[string]any
	body = map[string]any{"participants": []string{alice.ID.Hex()}}
	if code := call(t, h.CreateConversation, testutil.WithUser(testutil.NewJSONRequest("POST", "/x", body), bob), &again); code != http.StatusOK {
		t.Errorf("reuse: expected 200, got %d", code)
	}
	if again["id"] != convID {
		t.Errorf("direct conversation duplicated: %v vs %v", again["id"], convID)
	}

	send := map[string]any{"content": "fmt.Println(\"hi\")", "message_type": "code", "language": "go"}
	if code := call(t, h.SendConversationMessage, withID(testutil.WithUser(testutil.NewJSONRequest("POST", "/x", send), alice), convID), nil); code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", code)
	}

	var list []map[string]any
	call(t, h.ListConversations, testutil.WithUser(testutil.NewRequest("GET", "/x"), bob), &list)
	if len(list) != 1 || list[0]["unread_count"] != float64(1) {
		t.Fatalf("bob's conversations = %v", list)
	}
	if list[0]["last_message"] != "fmt.Println(\"hi\")" {
		t.Errorf("last_message = %v", list[0]["last_message"])
	}

	var msgs []map[string]any
	call(t, h.ConversationMessages, withID(testutil.WithUser(testutil.NewRequest("GET", "/x"), bob), convID), &msgs)
	if len(msgs) != 1 || msgs[0]["message_type"] != "code" {
		t.Errorf("messages = %v", msgs)
	}

	var shown map[string]any
	call(t, h.ShowConversation, withID(testutil.WithUser(testutil.NewRequest("GET", "/x"), bob), convID), &shown)
	if shown["unread_count"] != float64(0) {
		t.Errorf("reading messages should mark read, unread = %v", shown["unread_count"])
	}

	carol := fixtures.CreateUser(ctx, "carol")
	if code := call(t, h.ShowConversation, withID(testutil.WithUser(testutil.NewRequest("GET", "/x"), carol), convID), nil); code != http.StatusForbidden {
		t.Errorf("outsider: expected 403, got %d", code)
	}
}

func TestReact_RequiresMembership(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice")
	bob := fixtures.CreateUser(ctx, "bob")
	eve := fixtures.CreateUser(ctx, "eve")

	var conv map[string]any
	call(t, h.CreateConversation, testutil.WithUser(testutil.NewJSONRequest("POST", "/x", map[string]any{"participants": []string{bob.ID.Hex()}}), alice), &conv)
	var msg map[string]any
	call(t, h.SendConversationMessage, withID(testutil.WithUser(testutil.NewJSONRequest("POST", "/x", map[string]any{"content": "hello"}), alice), conv["id"].(string)), &msg)
	msgID := msg["id"].(string)

	react := func(u models.User, out any) int {
		return call(t, h.React, withID(testutil.WithUser(testutil.NewRequest("POST", "/x?emoji=%F0%9F%91%8D"), u), msgID), out)
	}

	if code := react(eve, nil); code != http.StatusForbidden {
		t.Errorf("outsider: expected 403, got %d", code)
	}
	var got map[string]any
	if code := react(bob, &got); code != http.StatusOK {
		t.Fatalf("bob: expected 200, got %d", code)
	}
	reactions := got["reactions"].([]any)
	if len(reactions) != 1 || reactions[0].(map[string]any)["count"] != float64(1) {
		t.Errorf("reactions = %v", reactions)
	}
	got = nil
	react(bob, &got)
	if n := len(got["reactions"].([]any)); n != 0 {
		t.Errorf("toggle off left %d reactions", n)
	}
}

func TestBastion_Flow(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner")
	joiner := fixtures.CreateUser(ctx, "joiner")

	body := map[string]any{
		"name":        "Gophers",
		"description": "A room for Go learners",
		"max_members": 5,
		"tags":        []string{"go"},
	}
	var b map[string]any
	if code := call(t, h.CreateBastion, testutil.WithUser(testutil.NewJSONRequest("POST", "/x", body), owner), &b); code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	if b["member_count"] != float64(1) || b["is_member"] != true {
		t.Errorf("created bastion = %v", b)
	}
	id := b["id"].(string)

	var joined map[string]any
	call(t, h.JoinBastion, withID(testutil.WithUser(testutil.NewRequest("POST", "/x"), joiner), id), &joined)
	if joined["joined"] != true || joined["already_member"] != false {
		t.Errorf("join = %v", joined)
	}
	joined = nil
	call(t, h.JoinBastion, withID(testutil.WithUser(testutil.NewRequest("POST", "/x"), joiner), id), &joined)
	if joined["already_member"] != true {
		t.Errorf("second join = %v", joined)
	}

	if code := call(t, h.SendBastionMessage, withID(testutil.WithUser(testutil.NewJSONRequest("POST", "/x", map[string]any{"content": "hi all"}), owner), id), nil); code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", code)
	}

	var mine []map[string]any
	call(t, h.MyBastions, testutil.WithUser(testutil.NewRequest("GET", "/x"), joiner), &mine)
	if len(mine) != 1 || mine[0]["unread_count"] != float64(1) {
		t.Fatalf("joiner bastions = %v", mine)
	}
	if code := call(t, h.ReadBastion, withID(testutil.WithUser(testutil.NewRequest("POST", "/x"), joiner), id), nil); code != http.StatusOK {
		t.Errorf("read: expected 200, got %d", code)
	}
	mine = nil
	call(t, h.MyBastions, testutil.WithUser(testutil.NewRequest("GET", "/x"), joiner), &mine)
	if mine[0]["unread_count"] != float64(0) {
		t.Errorf("unread after read = %v", mine[0]["unread_count"])
	}

	if code := call(t, h.LeaveBastion, withID(testutil.WithUser(testutil.NewRequest("POST", "/x"), joiner), id), nil); code != http.StatusOK {
		t.Errorf("leave: expected 200, got %d", code)
	}
	if code := call(t, h.BastionMessages, withID(testutil.WithUser(testutil.NewRequest("GET", "/x"), joiner), id), nil); code != http.StatusForbidden {
		t.Errorf("after leave: expected 403, got %d", code)
	}

	var public []map[string]any
	call(t, h.ListBastions, testutil.WithGuest(testutil.NewRequest("GET", "/x?tags=go")), &public)
	if len(public) != 1 || public[0]["is_member"] != false {
		t.Errorf("public list = %v", public)
	}
}

func TestGuestsRejected(t *testing.T) {
	h, _ := newTestHandler(t)
	if code := call(t, h.ListConversations, testutil.WithGuest(testutil.NewRequest("GET", "/x")), nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
}

func TestJoinBastion_Full(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner")
	body := map[string]any{
		"name":        "Tiny room",
		"description": "Only room for five",
		"max_members": 5,
	}
	var b map[string]any
	if code := call(t, h.CreateBastion, testutil.WithUser(testutil.NewJSONRequest("POST", "/x", body), owner), &b); code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	id := b["id"].(string)

	for _, name := range []string{"ann", "ben", "cat", "dan"} {
		u := fixtures.CreateUser(ctx, name)
		if code := call(t, h.JoinBastion, withID(testutil.WithUser(testutil.NewRequest("POST", "/x"), u), id), nil); code != http.StatusOK {
			t.Fatalf("join %s: expected 200, got %d", name, code)
		}
	}

	late := fixtures.CreateUser(ctx, "late")
	var resp map[string]any
	if code := call(t, h.JoinBastion, withID(testutil.WithUser(testutil.NewRequest("POST", "/x"), late), id), &resp); code != http.StatusBadRequest {
		t.Fatalf("full join: expected 400, got %d", code)
	}
	if resp["detail"] != "bastion is full" {
		t.Errorf("detail = %v", resp["detail"])
	}
}
