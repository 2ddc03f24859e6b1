package events

import (
	"errors"
	"net/http"

	eventstore "github.com/dalemusser/festhub/internal/app/store/events"
	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Create serves POST /events (admin only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "events.create")
	defer cancel()

	e, err := h.Events.Create(ctx, eventstore.NewEvent{
		EventID:     req.ID,
		Name:        req.Title,
		Description: req.Description,
		Tag:         req.Tag,
		Password:    req.Password,
		Points:      req.Points,
	})
	switch {
	case errors.Is(err, eventstore.ErrDuplicateEventID):
		httpjson.Error(w, http.StatusConflict, "An event with this id already exists")
		return
	case errors.Is(err, eventstore.ErrInvalidEvent):
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.Log.Error("create event failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not create event")
		return
	}

	h.Log.Info("event created", zap.String("event_id", e.EventID), zap.String("name", e.Name))
	httpjson.Write(w, http.StatusCreated, map[string]any{
		"success": true,
		"event":   e,
	})
}
