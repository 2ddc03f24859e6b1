package users

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/festhub/internal/app/store/users"
	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/scoring"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type pointsCheckResponse struct {
	Success      bool   `json:"success"`
	LedgerPoints int64  `json:"ledgerPoints"`
	StoredPoints int64  `json:"storedPoints"`
	AuditPoints  *int64 `json:"auditPoints,omitempty"`
	Consistent   bool   `json:"consistent"`
}

// PointsCheck serves GET /users/{id}/points-check (admin only). It compares
// users.points with the sum of the user's ledger entries, and reports the
// audit trail's running total when one is kept.
func (h *Handler) PointsCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "users.points_check")
	defer cancel()

	u, err := h.Users.Resolve(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, userstore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error("resolve user failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not load user")
		return
	}

	ledger, stored, err := h.Scoring.Verify(ctx, u.ID)
	if errors.Is(err, scoring.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error("points check failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not check points")
		return
	}

	if ledger != stored {
		h.Log.Warn("points drift detected",
			zap.String("user_id", u.ID.Hex()),
			zap.Int64("ledger", ledger),
			zap.Int64("stored", stored))
	}
	resp := pointsCheckResponse{
		Success:      true,
		LedgerPoints: ledger,
		StoredPoints: stored,
		Consistent:   ledger == stored,
	}
	if h.Audit != nil {
		sum, err := h.Audit.SumByUser(ctx, u.ID.Hex())
		if err != nil {
			h.Log.Warn("audit sum failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		} else {
			resp.AuditPoints = &sum
		}
	}
	httpjson.OK(w, resp)
}
