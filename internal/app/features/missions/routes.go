// internal/app/features/missions/routes.go
package missions

import (
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts mission routes (typically under "/missions").
// Every route requires a signed-in user; finer checks happen per handler
// through gates and the mission policy.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole("admin"))
		ar.Get("/conflicts", h.ServeConflicts)
		ar.Get("/incomplete", h.ServeIncomplete)
		ar.Post("/incomplete/notify", h.HandleNotifyIncomplete)
	})

	r.Route("/{id}", func(mr chi.Router) {
		mr.Get("/", h.ServeShow)
		mr.Post("/edit", h.HandleEdit)
		mr.Post("/delete", h.HandleDelete)
		mr.Post("/register", h.HandleRegister)
		mr.Post("/unregister", h.HandleUnregister)
		mr.Post("/assign", h.HandleAssign)
		mr.Post("/unassign", h.HandleUnassign)
		mr.Get("/contacts", h.ServeContacts)
	})
	return r
}
