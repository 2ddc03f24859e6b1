// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/festhub/internal/app/store/audit"
	"github.com/dalemusser/festhub/internal/domain/models"
	"go.uber.org/zap"
)

// Destinations for audit entries.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Points controls where point changes are recorded. Empty means ModeAll.
	Points string
}

// Actor identifies who caused a change. Both fields may be empty, e.g. for
// an anonymous QR check-in.
type Actor struct {
	UserID string
	IP     string
}

// Logger records point changes to MongoDB (via audit.Store) and to zap.
// Failures are logged and swallowed; an audit write never fails the caller.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) mode() string {
	if l.config.Points == "" {
		return ModeAll
	}
	return l.config.Points
}

// Log records an entry according to the configured mode.
// A nil Logger is a no-op so tests can pass nil.
func (l *Logger) Log(ctx context.Context, e audit.Entry) {
	if l == nil {
		return
	}
	mode := l.mode()
	if mode == ModeOff {
		return
	}

	if mode == ModeAll || mode == ModeLog {
		l.zapLog.Info("points changed",
			zap.Bool("audit", true),
			zap.String("reason", e.Reason),
			zap.String("user_id", e.UserID),
			zap.String("event_id", e.EventID),
			zap.String("award", e.Award),
			zap.Int64("delta", e.Delta),
			zap.Int64("points", e.Points),
			zap.String("actor_id", e.ActorID),
			zap.String("ip", e.IP))
	}

	if (mode == ModeAll || mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, e); err != nil {
			l.zapLog.Error("failed to store audit entry",
				zap.Error(err),
				zap.String("reason", e.Reason),
				zap.String("user_id", e.UserID))
		}
	}
}

// Registered records the participation point granted at check-in.
func (l *Logger) Registered(ctx context.Context, by Actor, userID, eventID string, delta, points int64) {
	l.Log(ctx, audit.Entry{
		Reason:  audit.ReasonRegistration,
		UserID:  userID,
		EventID: eventID,
		Award:   string(models.AwardParticipationPoint),
		Delta:   delta,
		Points:  points,
		ActorID: by.UserID,
		IP:      by.IP,
	})
}

// AwardChanged records an award grant (delta > 0) or revoke (delta < 0).
func (l *Logger) AwardChanged(ctx context.Context, by Actor, userID, eventID string, kind models.AwardKind, delta, points int64) {
	reason := audit.ReasonAwardGranted
	if delta < 0 {
		reason = audit.ReasonAwardRevoked
	}
	l.Log(ctx, audit.Entry{
		Reason:  reason,
		UserID:  userID,
		EventID: eventID,
		Award:   string(kind),
		Delta:   delta,
		Points:  points,
		ActorID: by.UserID,
		IP:      by.IP,
	})
}
