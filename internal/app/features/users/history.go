package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/festhub/internal/app/store/audit"
	userstore "github.com/dalemusser/festhub/internal/app/store/users"
	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxHistory = 500

// History serves GET /users/{id}/points-history?limit=N: the user's point
// changes, newest first. Visible to the owner and admins.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		httpjson.Error(w, http.StatusNotFound, "Point history is not recorded")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "users.history")
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
	if !canSeePrivate(r, u) {
		httpjson.Error(w, http.StatusForbidden, "Not allowed")
		return
	}

	var limit int64 = 50
	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			httpjson.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}

	entries, err := h.Audit.Query(ctx, audit.QueryFilter{UserID: u.ID.Hex(), Limit: limit})
	if err != nil {
		h.Log.Error("query point history failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not load point history")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httpjson.OK(w, map[string]any{"success": true, "entries": entries})
}
