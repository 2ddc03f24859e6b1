// internal/app/features/leaderboard/handler.go
package leaderboard

import (
	"net/http"

	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	lb "github.com/dalemusser/festhub/internal/app/system/leaderboard"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Board *lb.Aggregator
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Board: lb.New(db), Log: logger}
}

// Serve handles GET /leaderboard. Standings are recomputed on every call and
// the response must never be cached.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	httpjson.NoCache(w)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leaderboard")
	defer cancel()

	board, err := h.Board.Build(ctx)
	if err != nil {
		h.Log.Error("build leaderboard failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not load the leaderboard")
		return
	}
	httpjson.OK(w, board)
}
