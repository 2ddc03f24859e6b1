// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background helpers, then disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if bg := deps.Background; bg != nil {
		if bg.StateCleanup != nil {
			bg.StateCleanup.Stop()
		}
		if bg.PasswordGuard != nil {
			bg.PasswordGuard.Stop()
		}
	}

	if deps.FestHubMongoClient != nil {
		logger.Info("disconnecting FestHub MongoDB client")
		if err := deps.FestHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
