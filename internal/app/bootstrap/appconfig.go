// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries everything specific to FestHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64
	// MongoTransactions pairs ledger and points writes in one transaction.
	// Off means compensating writes are always used.
	MongoTransactions bool

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: festhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// BaseURL is where this API is reachable; the OAuth callback hangs off it.
	BaseURL string
	// FrontendURL is where the web client lives; logins redirect back there.
	FrontendURL string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	AdminEmails        []string // verified Google emails promoted to admin on login

	// SeedEventsFile is a JSON array of events inserted on startup when absent.
	SeedEventsFile string

	// Failed event-password throttling, per client IP
	RegisterRateLimit  int
	RegisterRateWindow time.Duration
	// TrustedProxies are the reverse proxies whose X-Forwarded-For is believed.
	TrustedProxies []string

	// Datastore deadlines (zero keeps the built-in default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration

	OAuthStateCleanupInterval time.Duration

	// AuditPoints routes point-change audit entries: all, db, log, or off.
	AuditPoints string
}
