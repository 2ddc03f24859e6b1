package events

import (
	"net/http"

	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/scoring"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type updatePointsResponse struct {
	Success       bool  `json:"success"`
	UpdatedPoints int64 `json:"updatedPoints"`
	Delta         int64 `json:"delta"`
	Changed       bool  `json:"changed"`
}

// UpdatePoints serves POST /events/update-points. Setting a flag to the value
// it already has succeeds with delta 0.
func (h *Handler) UpdatePoints(w http.ResponseWriter, r *http.Request) {
	var req updatePointsRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "events.update_points")
	defer cancel()

	e, err := h.Events.Get(ctx, req.EventID)
	if err != nil {
		h.writeErr(w, "update points", err)
		return
	}
	if !h.gate(w, r, e, r.Header.Get(PasswordHeader)) {
		return
	}

	res, err := h.Scoring.UpdateAward(ctx, scoring.AwardInput{
		UserRef:  req.UserID,
		EventRef: e.EventID,
		Kind:     req.PointType,
		Value:    *req.Value,
	}, actor(r))
	if err != nil {
		h.writeErr(w, "update points", err)
		return
	}

	if res.Changed {
		h.Log.Info("award changed",
			zap.String("user_id", res.User.ID.Hex()),
			zap.String("event_id", e.EventID),
			zap.String("award", req.PointType),
			zap.Int64("delta", res.Delta))
	}

	httpjson.OK(w, updatePointsResponse{
		Success:       true,
		UpdatedPoints: res.Points,
		Delta:         res.Delta,
		Changed:       res.Changed,
	})
}
