package events

import (
	"net/http"

	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"github.com/dalemusser/festhub/internal/domain/models"
	"go.uber.org/zap"
)

type registerResponse struct {
	Success   bool         `json:"success"`
	User      *models.User `json:"user"`
	Duplicate bool         `json:"duplicate"`
	Message   string       `json:"message"`
}

// Register serves POST /events/register, the QR check-in. It needs the event
// password header or an admin session. A repeat scan is answered with 200 and
// duplicate=true. The attendee's email is left out unless the caller is that
// attendee or an admin.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "events.register")
	defer cancel()

	e, err := h.Events.Get(ctx, req.EventID)
	if err != nil {
		h.writeErr(w, "register", err)
		return
	}
	if !h.gate(w, r, e, r.Header.Get(PasswordHeader)) {
		return
	}

	res, err := h.Scoring.Register(ctx, req.UserID, e.EventID, actor(r))
	if err != nil {
		h.writeErr(w, "register", err)
		return
	}
	if !ownerOrAdmin(r, res.User) {
		res.User.Email = ""
	}

	msg := "Registered " + res.User.FullName() + " for " + res.Event.Name
	if res.Duplicate {
		msg = res.User.FullName() + " is already registered for " + res.Event.Name
	}
	h.Log.Info("check-in",
		zap.String("user_id", res.User.ID.Hex()),
		zap.String("event_id", res.Event.EventID),
		zap.Bool("duplicate", res.Duplicate))

	httpjson.OK(w, registerResponse{
		Success:   true,
		User:      res.User,
		Duplicate: res.Duplicate,
		Message:   msg,
	})
}
