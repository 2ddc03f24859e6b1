package events

import (
	"net/http"

	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// Verify serves POST /events/{eventId}/verify with body {"password": "..."}.
// The admin UI calls it before unlocking the roster, so the password is
// checked here instead of being shipped to the browser.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "events.verify")
	defer cancel()

	e, err := h.Events.Get(ctx, chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeErr(w, "verify", err)
		return
	}
	if !h.gate(w, r, e, req.Password) {
		return
	}
	httpjson.OK(w, map[string]bool{"success": true})
}
