// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/festhub/internal/app/system/auth"
	"github.com/dalemusser/festhub/internal/app/system/httpjson"
)

// Handler serves the identity of the current session.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	ID              string `json:"id"`
	ExternalID      string `json:"externalId"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
}

// ServeUserInfo returns JSON with the current user's authentication status and identity.
//
// Response format:
//
//	{ "isAuthenticated": bool, "id": "...", "externalId": "...", "name": "...", "email": "...", "role": "..." }
//
// The QR badge encodes externalId, so the client reads it from here after sign-in.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	httpjson.NoCache(w)

	user, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.OK(w, userInfo{})
		return
	}

	httpjson.OK(w, userInfo{
		IsAuthenticated: true,
		ID:              user.ID,
		ExternalID:      user.ExternalID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
	})
}
