package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	auditstore "github.com/dalemusser/codeswitch/internal/app/store/audit"
	"github.com/dalemusser/codeswitch/internal/app/system/auditlog"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"github.com/dalemusser/codeswitch/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testAppConfig() AppConfig {
	return AppConfig{
		JWTSecret:        "test-secret",
		AccessTokenTTL:   30 * time.Minute,
		GuestTokenTTL:    24 * time.Hour,
		BcryptCost:       4,
		TrendingInterval: 10 * time.Minute,
		AuditLogAuth:     "all",
		AuditLogAdmin:    "db",
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := testutil.NewFixtures(t, db).CreateUser(ctx, "root")

	audit := auditlog.New(auditstore.New(db), testLogger(), auditlog.Config{Admin: auditlog.ModeDB})
	require.NoError(t, ensureAdmin(ctx, db, u.Email, audit, testLogger()))

	var got models.User
	require.NoError(t, db.Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&got))
	assert.True(t, got.IsAdmin)

	n, err := auditstore.New(db).Count(ctx, auditstore.QueryFilter{EventType: auditstore.EventAdminPromoted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// running again is harmless
	require.NoError(t, ensureAdmin(ctx, db, u.Email, nil, testLogger()))
}

func TestEnsureAdmin_MissingAccountIsNotFatal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	require.NoError(t, ensureAdmin(ctx, db, "nobody@test.com", nil, testLogger()))
	require.NoError(t, ensureAdmin(ctx, db, "", nil, testLogger()))

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Zero(t, n, "ensureAdmin must never create accounts")
}

func TestValidateApp(t *testing.T) {
	require.NoError(t, validateApp("dev", testAppConfig()))

	cases := map[string]func(*AppConfig){
		"empty secret":  func(c *AppConfig) { c.JWTSecret = "" },
		"zero ttl":      func(c *AppConfig) { c.AccessTokenTTL = 0 },
		"low bcrypt":    func(c *AppConfig) { c.BcryptCost = 1 },
		"fast trending": func(c *AppConfig) { c.TrendingInterval = time.Second },
		"audit mode":    func(c *AppConfig) { c.AuditLogAdmin = "verbose" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testAppConfig()
			mutate(&cfg)
			assert.Error(t, validateApp("dev", cfg))
		})
	}

	cfg := testAppConfig()
	cfg.JWTSecret = devJWTSecret
	assert.NoError(t, validateApp("dev", cfg))
	assert.Error(t, validateApp("prod", cfg))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}

func TestBuildHandler_Smoke(t *testing.T) {
	client, db := testutil.SetupTestClient(t)
	deps := DBDeps{CodeSwitchMongoClient: client, CodeSwitchMongoDatabase: db}

	h, err := BuildHandler(&config.CoreConfig{}, testAppConfig(), deps, testLogger())
	require.NoError(t, err)

	get := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, get("GET", "/health", "").Code)
	assert.Equal(t, http.StatusOK, get("GET", APIPrefix+"/projects", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get("GET", APIPrefix+"/users/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get("GET", APIPrefix+"/admin/dashboard", "").Code)

	notFound := get("GET", APIPrefix+"/nope", "")
	assert.Equal(t, http.StatusNotFound, notFound.Code)
	assert.True(t, strings.Contains(notFound.Body.String(), "detail"))

	// a guest token admits guests to signed-in routes but not member routes
	guest := get("POST", APIPrefix+"/auth/guest", "")
	require.Equal(t, http.StatusOK, guest.Code)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, testutil.DecodeJSON(guest, &body))
	assert.Equal(t, http.StatusOK, get("GET", APIPrefix+"/users/me", body.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, get("GET", APIPrefix+"/messages/conversations", body.AccessToken).Code)
}
