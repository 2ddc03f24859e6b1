package events

import (
	"errors"
	"net/http"

	eventstore "github.com/dalemusser/festhub/internal/app/store/events"
	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// List serves GET /events. Gate passwords are never part of the response.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "events.list")
	defer cancel()

	evs, err := h.Events.List(ctx)
	if err != nil {
		h.Log.Error("list events failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not load events")
		return
	}
	httpjson.OK(w, evs)
}

// Get serves GET /events/{eventId}; the id may be the string id or the
// internal ObjectID.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "events.get")
	defer cancel()

	e, err := h.Events.Get(ctx, chi.URLParam(r, "eventId"))
	if errors.Is(err, eventstore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		h.Log.Error("get event failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not load event")
		return
	}
	httpjson.OK(w, e)
}
