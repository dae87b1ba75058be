// internal/app/features/settings/routes.go
package settings

import (
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes mounts the settings routes on the given router.
// Every signed-in user may read the registration state; only admins change it.
func (h *Handler) MountRoutes(r chi.Router, sm *auth.SessionManager) {
	r.With(sm.RequireSignedIn).Get("/", h.ServeSettings)
	r.With(sm.RequireRole("admin")).Post("/", h.HandleSettings)
}
