// internal/app/features/categories/routes.go
package categories

import (
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts category routes (typically under "/categories").
// Any signed-in user can list categories; changes are admin-only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole("admin"))
		ar.Post("/", h.HandleCreate)
		ar.Get("/cache", h.ServeCache)
		ar.Post("/cache/refresh", h.HandleRefresh)
		ar.Post("/{id}/edit", h.HandleEdit)
		ar.Post("/{id}/archive", h.HandleArchive)
		ar.Post("/{id}/delete", h.HandleDelete)
	})
	return r
}
