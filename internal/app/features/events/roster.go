package events

import (
	"net/http"

	"github.com/dalemusser/festhub/internal/app/system/auth"
	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"github.com/dalemusser/festhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type rosterUser struct {
	models.User
	EventPoints models.Awards `json:"eventPoints"`
}

// Users serves GET /events/{eventId}/users: the attendees registered for the
// event, each with the award flags of their ledger entry. Requires the event
// password header or an admin session; emails are only listed for admins.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "events.users")
	defer cancel()

	ref := chi.URLParam(r, "eventId")
	e, err := h.Events.Get(ctx, ref)
	if err != nil {
		h.writeErr(w, "roster", err)
		return
	}
	if !h.gate(w, r, e, r.Header.Get(PasswordHeader)) {
		return
	}

	_, entries, err := h.Scoring.Roster(ctx, e.EventID)
	if err != nil {
		h.writeErr(w, "roster", err)
		return
	}

	cur, _ := auth.CurrentUser(r)
	admin := cur.IsAdmin()

	out := make([]rosterUser, 0, len(entries))
	for _, en := range entries {
		u := en.User
		if !admin {
			u.Email = ""
		}
		out = append(out, rosterUser{User: u, EventPoints: en.Awards})
	}
	httpjson.OK(w, out)
}
