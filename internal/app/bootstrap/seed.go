package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	eventstore "github.com/dalemusser/festhub/internal/app/store/events"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// loadSeedFile reads a JSON array of events:
//
//	[{"id": "hackathon", "title": "Hackathon", "password": "...", "points": 1, "tag": "technical"}]
func loadSeedFile(path string) ([]eventstore.NewEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var evs []eventstore.NewEvent
	if err := json.Unmarshal(raw, &evs); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return evs, nil
}

// seedEvents inserts the events from path that do not exist yet. Existing
// events, and their passwords, are never overwritten.
func seedEvents(ctx context.Context, db *mongo.Database, path string, logger *zap.Logger) error {
	evs, err := loadSeedFile(path)
	if err != nil {
		return err
	}
	n, err := eventstore.New(db).Seed(ctx, evs)
	if err != nil {
		return fmt.Errorf("seed events: %w", err)
	}
	logger.Info("event seed complete",
		zap.String("file", path),
		zap.Int("in_file", len(evs)),
		zap.Int("inserted", n))
	return nil
}
