// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/festhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.Get)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/{id}", h.Upsert)
		pr.Get("/{id}/points-history", h.History)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin"))
		pr.Get("/{id}/points-check", h.PointsCheck)
	})

	return r
}
