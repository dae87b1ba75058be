// internal/app/features/users/routes.go
package users

import (
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts user administration routes (typically under "/users").
// Every route is admin-only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole("admin"))

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Post("/{id}/role", h.HandleSetRole)
	r.Post("/{id}/categories", h.HandleSetCategories)
	return r
}
