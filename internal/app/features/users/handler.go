// internal/app/features/users/handler.go
package users

import (
	"github.com/dalemusser/festhub/internal/app/store/audit"
	userstore "github.com/dalemusser/festhub/internal/app/store/users"
	"github.com/dalemusser/festhub/internal/app/system/scoring"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users   *userstore.Store
	Scoring *scoring.Service
	Audit   *audit.Store // may be nil; history and audit totals are then unavailable
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, svc *scoring.Service, auditStore *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   userstore.New(db),
		Scoring: svc,
		Audit:   auditStore,
		Log:     logger,
	}
}
