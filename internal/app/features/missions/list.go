// internal/app/features/missions/list.go
package missions

import (
	"context"
	"errors"
	"net/http"

	missionstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/missions"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/normalize"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
)

// ServeList handles GET /missions?category=&status=&urgent=1.
// Drafts are only listed for users who can edit their category.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mission list")
	defer cancel()

	q := r.URL.Query()
	status := normalize.Filter(q.Get("status"))
	if status != "" && !models.ValidMissionStatus(status) {
		uierrors.RenderBadRequest(w, r, "Statut inconnu.")
		return
	}
	filter := missionstore.Filter{
		Category:   normalize.Filter(q.Get("category")),
		Status:     status,
		UrgentOnly: q.Get("urgent") == "1" || q.Get("urgent") == "true",
	}

	ms, err := h.Missions.List(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list missions failed", err, "")
		return
	}

	out := listResponse{Missions: []missionView{}}
	editable := map[string]bool{}
	for _, m := range ms {
		canEdit, ok := editable[m.Category]
		if !ok {
			canEdit, err = h.Policy.CanEdit(ctx, g.User, m.Category)
			if err != nil {
				h.ErrLog.LogServerError(w, r, "resolve categories failed", err, "")
				return
			}
			editable[m.Category] = canEdit
		}
		if m.Status == models.MissionStatusDraft && !canEdit {
			continue
		}
		v := toView(m)
		v.CanEdit = canEdit
		v.Assigned = m.HasVolunteer(g.UserID)
		out.Missions = append(out.Missions, v)
	}
	out.Count = len(out.Missions)
	response.OK(w, out)
}

// ServeShow handles GET /missions/{id}.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mission show")
	defer cancel()

	m, ok := h.loadMission(ctx, w, r)
	if !ok {
		return
	}
	canEdit, err := h.Policy.CanEdit(ctx, g.User, m.Category)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve categories failed", err, "")
		return
	}
	if m.Status == models.MissionStatusDraft && !canEdit {
		uierrors.RenderNotFound(w, r, "Mission introuvable.")
		return
	}

	v := toView(m)
	v.CanEdit = canEdit
	v.Assigned = m.HasVolunteer(g.UserID)
	response.OK(w, v)
}

// loadMission reads the {id} URL param and loads the mission, answering
// 400/404/500 itself when it cannot.
func (h *Handler) loadMission(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Mission, bool) {
	id, ok := missionID(w, r)
	if !ok {
		return models.Mission{}, false
	}
	m, err := h.Missions.GetByID(ctx, id)
	if errors.Is(err, missionstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Mission introuvable.")
		return models.Mission{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load mission failed", err, "")
		return models.Mission{}, false
	}
	return m, true
}

func missionID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Identifiant de mission invalide.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// allowed runs a policy check, answering 403 or 500 itself when it fails.
func (h *Handler) allowed(w http.ResponseWriter, r *http.Request, check func() (bool, error)) bool {
	ok, err := check()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve categories failed", err, "")
		return false
	}
	if !ok {
		uierrors.RenderForbidden(w, r, "")
		return false
	}
	return true
}
