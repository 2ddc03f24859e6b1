// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/festhub/internal/app/system/auditlog"
	"github.com/dalemusser/festhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for FestHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: FESTHUB_MONGO_URI, FESTHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "festhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "mongo_transactions", Default: true, Desc: "Pair ledger and points writes in a transaction when the deployment supports it"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "festhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of this API (OAuth callback)"},
	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Base URL of the web client; logins redirect here"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "admin_emails", Default: "", Desc: "Comma-separated Google emails granted the admin role on login"},

	{Name: "seed_events_file", Default: "", Desc: "JSON file of events to insert on startup when missing"},

	// Event password throttling
	{Name: "register_rate_limit", Default: 30, Desc: "Max failed event-password attempts per client IP per window"},
	{Name: "register_rate_window", Default: "1m", Desc: "Rate limit window (e.g., 30s, 1m)"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy IPs/CIDRs whose X-Forwarded-For is believed"},

	// Datastore timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document operations"},
	{Name: "timeout_medium", Default: "15s", Desc: "Deadline for lists and aggregations"},

	{Name: "oauth_state_cleanup_interval", Default: "15m", Desc: "How often expired OAuth states are purged"},

	// Audit logging settings
	{Name: "audit_points", Default: "all", Desc: "Point change logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, FESTHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FESTHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:          appValues.String("mongo_uri"),
		MongoDatabase:     appValues.String("mongo_database"),
		MongoMaxPoolSize:  uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:  uint64(appValues.Int("mongo_min_pool_size")),
		MongoTransactions: appValues.Bool("mongo_transactions"),
		SessionKey:        appValues.String("session_key"),
		SessionName:       appValues.String("session_name"),
		SessionDomain:     appValues.String("session_domain"),
		SessionMaxAge:     appValues.Duration("session_max_age", 30*24*time.Hour),

		BaseURL:     appValues.String("base_url"),
		FrontendURL: appValues.String("frontend_url"),

		// Google OAuth
		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		AdminEmails:        splitList(appValues.String("admin_emails")),

		SeedEventsFile: appValues.String("seed_events_file"),

		RegisterRateLimit:  appValues.Int("register_rate_limit"),
		RegisterRateWindow: appValues.Duration("register_rate_window", time.Minute),
		TrustedProxies:     splitList(appValues.String("trusted_proxies")),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),

		OAuthStateCleanupInterval: appValues.Duration("oauth_state_cleanup_interval", 15*time.Minute),

		AuditPoints: strings.ToLower(strings.TrimSpace(appValues.String("audit_points"))),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI format is checked here to catch configuration errors
// early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}

	switch appCfg.AuditPoints {
	case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("audit_points must be one of all, db, log, off (got %q)", appCfg.AuditPoints)
	}

	if appCfg.RegisterRateLimit < 0 {
		return fmt.Errorf("register_rate_limit must not be negative")
	}

	if _, err := ratelimit.ParseProxies(appCfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted_proxies: %w", err)
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return fmt.Errorf("google_client_id and google_client_secret must be set together")
	}

	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return fmt.Errorf("session_key must be changed in production")
	}

	return nil
}
