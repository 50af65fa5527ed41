// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers the framework-level settings (ports, TLS,
// logging level and format, request limits). Everything CodeSwitch needs
// on top of that lives here and is passed to the lifecycle hooks.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret      string        // HS256 signing secret (must be strong in production)
	AccessTokenTTL time.Duration // lifetime of a signed-in user's token
	GuestTokenTTL  time.Duration // lifetime of a guest token

	BcryptCost int

	// Browser origins allowed to call the API
	CORSOrigins []string

	// AdminEmail is promoted to admin on startup when the account exists.
	AdminEmail string

	// Audit destinations per category: all, db, log or off
	AuditLogAuth  string
	AuditLogAdmin string

	// How often trending flags are recomputed when nothing kicks the job.
	TrendingInterval time.Duration

	// Handler timeouts (see system/timeouts)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
