// internal/app/features/missions/contacts.go
package missions

import (
	"net/http"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
)

// ServeContacts handles GET /missions/{id}/contacts: the roster with
// contact details, in roster order. Email and phone are withheld for
// volunteers who did not consent to data processing.
func (h *Handler) ServeContacts(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mission contacts")
	defer cancel()

	m, ok := h.loadMission(ctx, w, r)
	if !ok {
		return
	}
	if !h.allowed(w, r, func() (bool, error) {
		return h.Policy.CanViewContacts(ctx, g.User, m.Category, m.VolunteerHexes())
	}) {
		return
	}

	users, err := h.Users.ListByIDs(ctx, m.Volunteers)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load volunteers failed", err, "")
		return
	}
	byID := make(map[string]contactView, len(users))
	for _, u := range users {
		c := contactView{ID: u.ID.Hex(), FullName: u.FullName}
		if u.ConsentDataProcessing {
			c.Email = u.Email
			c.Phone = u.Phone
		}
		byID[c.ID] = c
	}

	out := make([]contactView, 0, len(m.Volunteers))
	for _, id := range m.VolunteerHexes() {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	response.OK(w, map[string]any{"mission": m.ID.Hex(), "contacts": out})
}
