// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/festhub/internal/app/system/ratelimit"
	"github.com/dalemusser/festhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	FestHubMongoClient   *mongo.Client
	FestHubMongoDatabase *mongo.Database

	// Background is filled in by Startup and torn down by Shutdown. It is a
	// pointer so every hook sees the same value.
	Background *Background
}

// Background holds long-lived helpers that must be stopped on shutdown.
type Background struct {
	StateCleanup  *workers.StateCleanup
	PasswordGuard *ratelimit.Limiter // failed event-password attempts per IP
}
