// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for CodeSwitch.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: CODESWITCH_MONGO_URI, CODESWITCH_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "codeswitch", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Tokens and passwords
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 signing secret (must be strong in production)"},
	{Name: "access_token_ttl", Default: "30m", Desc: "Signed-in token lifetime (e.g., 30m, 12h)"},
	{Name: "guest_token_ttl", Default: "24h", Desc: "Guest token lifetime"},
	{Name: "bcrypt_cost", Default: bcrypt.DefaultCost, Desc: "bcrypt work factor for password hashes"},

	// CORS
	{Name: "cors_origins", Default: "http://localhost:5173,http://localhost:5174,http://127.0.0.1:5173,http://127.0.0.1:5174", Desc: "Comma-separated browser origins allowed to call the API"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of an existing user to promote to admin on startup"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Background jobs
	{Name: "trending_interval", Default: "10m", Desc: "How often community trending flags are recomputed"},

	// Handler timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document handler work"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list and count handler work"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for batch handler work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CODESWITCH_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CODESWITCH", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:      appValues.String("jwt_secret"),
		AccessTokenTTL: appValues.Duration("access_token_ttl", 30*time.Minute),
		GuestTokenTTL:  appValues.Duration("guest_token_ttl", 24*time.Hour),
		BcryptCost:     appValues.Int("bcrypt_cost"),

		CORSOrigins: splitList(appValues.String("cors_origins")),
		AdminEmail:  strings.TrimSpace(appValues.String("admin_email")),

		AuditLogAuth:  strings.ToLower(appValues.String("audit_log_auth")),
		AuditLogAdmin: strings.ToLower(appValues.String("audit_log_admin")),

		TrendingInterval: appValues.Duration("trending_interval", 10*time.Minute),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before attempting to connect, and a
// production deployment may not run on the development JWT secret.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

func validateApp(env string, appCfg AppConfig) error {
	if appCfg.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if env == "prod" && appCfg.JWTSecret == devJWTSecret {
		return errors.New("jwt_secret must be changed in production")
	}
	if appCfg.AccessTokenTTL <= 0 || appCfg.GuestTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if !auditlog.ValidMode(appCfg.AuditLogAuth) || !auditlog.ValidMode(appCfg.AuditLogAdmin) {
		return errors.New("audit_log_auth and audit_log_admin must be one of all, db, log, off")
	}
	if appCfg.TrendingInterval < time.Minute {
		return errors.New("trending_interval must be at least 1m")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
