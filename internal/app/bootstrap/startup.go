// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/dalemusser/codeswitch/internal/app/store/users"
	"github.com/dalemusser/codeswitch/internal/app/system/auditlog"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(appCfg.TimeoutShort, appCfg.TimeoutMedium, appCfg.TimeoutLong, logger)

	if err := ensureAdmin(ctx, deps.CodeSwitchMongoDatabase, appCfg.AdminEmail, deps.Audit, logger); err != nil {
		return err
	}

	if deps.Trending != nil {
		deps.Trending.Start()
		// first pass right away rather than one interval from now
		deps.Trending.Kick()
	}
	return nil
}

// ensureAdmin promotes the configured admin account. A missing account is
// logged, not fatal: the admin may not have registered yet.
func ensureAdmin(ctx context.Context, db *mongo.Database, email string, audit *auditlog.Logger, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	found, err := userstore.New(db).PromoteByEmail(ctx, email)
	if err != nil {
		logger.Error("admin promotion failed", zap.String("email", email), zap.Error(err))
		return err
	}
	if !found {
		logger.Warn("admin_email has no account yet; register it and restart", zap.String("email", email))
		return nil
	}
	audit.AdminPromoted(ctx, email)
	logger.Info("admin ensured", zap.String("email", email))
	return nil
}
