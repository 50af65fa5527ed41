package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/codeswitch/internal/app/store/audit"
	"github.com/dalemusser/codeswitch/internal/app/system/auditlog"
	"github.com/dalemusser/codeswitch/internal/app/system/paging"
	"github.com/dalemusser/codeswitch/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var page = paging.Window{Limit: 50}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/auth/login", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "ada")
	logger.AdminToggled(ctx, req, primitive.NewObjectID(), primitive.NewObjectID(), true)
}

func TestLogger_Modes(t *testing.T) {
	cases := []struct {
		mode    string
		wantDB  int
		wantLog int
	}{
		{auditlog.ModeAll, 1, 1},
		{auditlog.ModeDB, 1, 0},
		{auditlog.ModeLog, 0, 1},
		{auditlog.ModeOff, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tc.mode, Admin: auditlog.ModeOff})
			logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/auth/login", nil), primitive.NewObjectID(), "ada")

			n, err := store.Count(ctx, audit.QueryFilter{})
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if int(n) != tc.wantDB {
				t.Errorf("db events = %d, want %d", n, tc.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tc.wantLog {
				t.Errorf("log entries = %d, want %d", got, tc.wantLog)
			}
		})
	}
}

func TestLogger_CategoriesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeOff, Admin: auditlog.ModeDB})
	req := httptest.NewRequest("PUT", "/admin/users/x/toggle-admin", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	actor, target := primitive.NewObjectID(), primitive.NewObjectID()
	logger.LoginFailedUserNotFound(ctx, req, "nobody")
	logger.AdminToggled(ctx, req, actor, target, true)

	events, err := store.Query(ctx, audit.QueryFilter{}, page)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the admin event, got %d", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventAdminGranted || *e.ActorID != actor || *e.UserID != target {
		t.Errorf("unexpected event %+v", e)
	}
	if e.IP != "203.0.113.7" {
		t.Errorf("ip = %q", e.IP)
	}
}

func TestLogger_FailedLoginIsWarning(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(audit.New(db), zap.New(core), auditlog.Config{Auth: auditlog.ModeLog})
	logger.LoginFailedWrongPassword(ctx, httptest.NewRequest("POST", "/auth/login", nil), primitive.NewObjectID(), "ada")

	entries := logs.All()
	if len(entries) != 1 || entries[0].Level != zap.WarnLevel {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidMode(m) {
			t.Errorf("%q should be valid", m)
		}
	}
	if auditlog.ValidMode("everything") {
		t.Error("unknown mode accepted")
	}
}
