// internal/app/features/events/routes.go
package events

import (
	"github.com/dalemusser/festhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /events. Password-gated routes are throttled by the
// handler's Guard on failed attempts only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/register", h.Register)
	r.Post("/update-points", h.UpdatePoints)
	r.Get("/{eventId}", h.Get)
	r.Get("/{eventId}/users", h.Users)
	r.Post("/{eventId}/verify", h.Verify)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin"))
		pr.Post("/", h.Create)
	})

	return r
}
