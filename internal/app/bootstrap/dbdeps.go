// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/codeswitch/internal/app/system/auditlog"
	"github.com/dalemusser/codeswitch/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	CodeSwitchMongoClient   *mongo.Client
	CodeSwitchMongoDatabase *mongo.Database

	// Trending recomputes community trending flags. Built with the
	// database, started in Startup, stopped in Shutdown.
	Trending *workers.Runner

	// Audit writes sign-in and admin events to audit_events and zap.
	Audit *auditlog.Logger
}
