package users

import (
	"errors"
	"net/http"
	"regexp"

	userstore "github.com/dalemusser/festhub/internal/app/store/users"
	"github.com/dalemusser/festhub/internal/app/system/auth"
	"github.com/dalemusser/festhub/internal/app/system/httpjson"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"github.com/dalemusser/festhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
)

var (
	photoURLPattern = regexp.MustCompile(`^https?://`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type profileRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	College     string `json:"college"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	Email       string `json:"email"`
}

func (req *profileRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.LastName, validation.Length(0, 100)),
		validation.Field(&req.College, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.DisplayName, validation.Length(0, 100)),
		validation.Field(&req.PhotoURL, validation.Length(0, 2000), validation.Match(photoURLPattern)),
		validation.Field(&req.Email, validation.Length(0, 254), validation.Match(emailPattern)),
	)
}

// canSeePrivate reports whether the caller owns u or is an admin.
func canSeePrivate(r *http.Request, u *models.User) bool {
	cur, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	return cur.IsAdmin() || cur.ID == u.ID.Hex()
}

// Get serves GET /users/{id}; id is the internal id or the identity-provider
// id. Email is only shown to the owner and admins.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "users.get")
	defer cancel()

	u, err := h.Users.Resolve(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, userstore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error("get user failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not load user")
		return
	}

	if !canSeePrivate(r, u) {
		u.Email = ""
	}
	httpjson.OK(w, map[string]any{"success": true, "user": u})
}

// Upsert serves POST /users/{id}: create or update the profile linked to the
// identity-provider id {id}. Callers may only write their own profile unless
// they are admins. Points and role are never taken from the body.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	cur, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Sign in required")
		return
	}
	externalID := chi.URLParam(r, "id")
	if !cur.IsAdmin() && cur.ExternalID != externalID {
		httpjson.Error(w, http.StatusForbidden, "You can only update your own profile")
		return
	}

	var req profileRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "users.upsert")
	defer cancel()

	u, created, err := h.Users.Upsert(ctx, externalID, userstore.Profile{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		College:     req.College,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Email:       req.Email,
	})
	if err != nil {
		h.Log.Error("upsert user failed", zap.String("external_id", externalID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Could not save profile")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.Log.Info("user created", zap.String("user_id", u.ID.Hex()), zap.String("external_id", externalID))
	}
	httpjson.Write(w, status, map[string]any{
		"success": true,
		"created": created,
		"user":    u,
	})
}
