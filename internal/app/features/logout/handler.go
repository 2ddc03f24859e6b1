// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/festhub/internal/app/system/auth"
	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// ServeLogout handles POST /logout. The cookie is expired even when the
// existing one could not be decoded.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.CurrentUser(r); ok {
		h.Log.Info("user logged out", zap.String("user_id", user.ID))
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not sign out")
		return
	}

	httpjson.NoCache(w)
	httpjson.OK(w, map[string]bool{"success": true})
}
