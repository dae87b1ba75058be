// internal/app/features/missions/conflicts.go
package missions

import (
	"net/http"

	missionstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/missions"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type conflictView struct {
	VolunteerID   string                `json:"volunteer_id"`
	VolunteerName string                `json:"volunteer_name"`
	A             assignment.MissionRef `json:"a"`
	B             assignment.MissionRef `json:"b"`
}

// ServeConflicts handles GET /missions/conflicts (admin): every volunteer
// booked on two overlapping missions.
func (h *Handler) ServeConflicts(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAdmin(w, r); !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "mission conflicts")
	defer cancel()

	ms, err := h.Missions.List(ctx, missionstore.Filter{})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list missions failed", err, "")
		return
	}
	conflicts := assignment.FindConflicts(ms)

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, c := range conflicts {
		if !seen[c.VolunteerID] {
			seen[c.VolunteerID] = true
			ids = append(ids, c.VolunteerID)
		}
	}
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) > 0 {
		users, err := h.Users.ListByIDs(ctx, ids)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load volunteers failed", err, "")
			return
		}
		for _, u := range users {
			names[u.ID] = u.FullName
		}
	}

	out := make([]conflictView, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, conflictView{
			VolunteerID:   c.VolunteerID.Hex(),
			VolunteerName: names[c.VolunteerID],
			A:             c.A,
			B:             c.B,
		})
	}
	response.OK(w, map[string]any{"conflicts": out, "count": len(out)})
}
