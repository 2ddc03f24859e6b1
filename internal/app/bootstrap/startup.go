// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/festhub/internal/app/store/oauthstate"
	"github.com/dalemusser/festhub/internal/app/system/ratelimit"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"github.com/dalemusser/festhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

const defaultStateCleanupInterval = 15 * time.Minute

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: datastore
// deadlines, event seeding, and the background helpers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})

	if err := ratelimit.SetTrustedProxies(appCfg.TrustedProxies); err != nil {
		return err
	}

	if appCfg.SeedEventsFile != "" {
		if err := seedEvents(ctx, deps.FestHubMongoDatabase, appCfg.SeedEventsFile, logger); err != nil {
			logger.Error("event seeding failed", zap.Error(err))
			return err
		}
	}

	if deps.Background == nil {
		return nil
	}

	if appCfg.RegisterRateLimit > 0 {
		deps.Background.PasswordGuard = ratelimit.New(appCfg.RegisterRateLimit, appCfg.RegisterRateWindow)
	}

	interval := appCfg.OAuthStateCleanupInterval
	if interval <= 0 {
		interval = defaultStateCleanupInterval
	}
	cleanup := workers.NewStateCleanup(oauthstate.New(deps.FestHubMongoDatabase), logger, interval)
	cleanup.Start()
	deps.Background.StateCleanup = cleanup

	return nil
}
