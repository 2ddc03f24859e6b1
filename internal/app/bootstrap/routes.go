// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authgooglefeature "github.com/dalemusser/festhub/internal/app/features/authgoogle"
	eventsfeature "github.com/dalemusser/festhub/internal/app/features/events"
	healthfeature "github.com/dalemusser/festhub/internal/app/features/health"
	leaderboardfeature "github.com/dalemusser/festhub/internal/app/features/leaderboard"
	logoutfeature "github.com/dalemusser/festhub/internal/app/features/logout"
	userinfofeature "github.com/dalemusser/festhub/internal/app/features/userinfo"
	usersfeature "github.com/dalemusser/festhub/internal/app/features/users"
	"github.com/dalemusser/festhub/internal/app/store/audit"
	"github.com/dalemusser/festhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/festhub/internal/app/store/users"
	"github.com/dalemusser/festhub/internal/app/system/auditlog"
	"github.com/dalemusser/festhub/internal/app/system/auth"
	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/ratelimit"
	"github.com/dalemusser/festhub/internal/app/system/scoring"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// FestHub is JSON-only: session middleware runs globally, and each feature
// router is mounted under its path prefix.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.FestHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request so role changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	auditStore := audit.New(db)
	pointsAudit := auditlog.New(auditStore, logger, auditlog.Config{Points: appCfg.AuditPoints})
	scoringSvc := scoring.New(db, pointsAudit, logger)
	if !appCfg.MongoTransactions {
		scoringSvc.DisableTransactions()
	}

	var limiter *ratelimit.Limiter
	if deps.Background != nil {
		limiter = deps.Background.PasswordGuard
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.FestHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Events, check-in, and awards
	eventsHandler := eventsfeature.NewHandler(db, scoringSvc, limiter, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler, sessionMgr))

	leaderboardHandler := leaderboardfeature.NewHandler(db, logger)
	r.Mount("/leaderboard", leaderboardfeature.Routes(leaderboardHandler))

	usersHandler := usersfeature.NewHandler(db, scoringSvc, auditStore, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	// Authentication
	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, oauthstate.New(db),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		appCfg.BaseURL, appCfg.FrontendURL, appCfg.AdminEmails, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	logoutfeature.MountRoutes(r, logoutfeature.NewHandler(sessionMgr, logger))
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	return r, nil
}
