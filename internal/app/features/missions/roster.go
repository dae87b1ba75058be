// internal/app/features/missions/roster.go
package missions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// rosterOp is one of the four coordinator operations, bound to its target.
type rosterOp func(ctx context.Context, actor *auth.SessionUser, missionID primitive.ObjectID) (models.Mission, error)

// HandleRegister handles POST /missions/{id}/register for the current user.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.selfService(w, r, "register", audit.EventVolunteerRegistered, h.Coord.Register)
}

// HandleUnregister handles POST /missions/{id}/unregister for the current user.
func (h *Handler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	h.selfService(w, r, "unregister", audit.EventVolunteerUnregistered, h.Coord.Unregister)
}

// HandleAssign handles POST /missions/{id}/assign with form field volunteer_id.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	h.onBehalf(w, r, "assign", audit.EventVolunteerAssigned, h.Coord.AdminAssign)
}

// HandleUnassign handles POST /missions/{id}/unassign with form field volunteer_id.
func (h *Handler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	h.onBehalf(w, r, "unassign", audit.EventVolunteerUnassigned, h.Coord.AdminUnassign)
}

func (h *Handler) selfService(w http.ResponseWriter, r *http.Request, op, event string, run rosterOp) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	id, ok := missionID(w, r)
	if !ok {
		return
	}
	if h.Limiter != nil {
		if allowed, msg := h.Limiter.Check(g.UserID.Hex()); !allowed {
			uierrors.Write(w, http.StatusTooManyRequests, uierrors.Body{Error: uierrors.KindRateLimited, Message: msg})
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mission "+op)
	defer cancel()

	m, err := run(ctx, g.User, id)
	h.finish(ctx, w, r, op, event, id, g.UserID, g.UserID, m, err)
}

func (h *Handler) onBehalf(w http.ResponseWriter, r *http.Request, op, event string, run func(context.Context, *auth.SessionUser, primitive.ObjectID, primitive.ObjectID) (models.Mission, error)) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	id, ok := missionID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := r.ParseForm(); err != nil {
		uierrors.RenderBadRequest(w, r, "Formulaire invalide.")
		return
	}
	vid, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.PostFormValue("volunteer_id")))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Identifiant de bénévole invalide.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mission "+op)
	defer cancel()

	m, err := run(ctx, g.User, id, vid)
	h.finish(ctx, w, r, op, event, id, vid, g.UserID, m, err)
}

// finish audits the outcome and writes the response. The no-op sentinels
// answer 200 with changed=false.
func (h *Handler) finish(ctx context.Context, w http.ResponseWriter, r *http.Request, op, event string, missionID, volunteerID, actorID primitive.ObjectID, m models.Mission, err error) {
	switch {
	case err == nil:
		h.Audit.RosterChanged(ctx, r, event, missionID, volunteerID, actorID)
		h.Log.Info("roster changed",
			zap.String("op", op),
			zap.String("mission_id", missionID.Hex()),
			zap.String("volunteer_id", volunteerID.Hex()),
			zap.String("actor_id", actorID.Hex()))
		response.OK(w, response.Changed{Changed: true, Mission: h.viewFor(m, actorID)})
		return
	case errors.Is(err, assignment.ErrAlreadyAssigned):
		response.OK(w, response.Changed{Mission: h.viewFor(m, actorID), Message: "Déjà inscrit(e) à cette mission."})
		return
	case errors.Is(err, assignment.ErrNotAssigned):
		response.OK(w, response.Changed{Mission: h.viewFor(m, actorID), Message: "Pas inscrit(e) à cette mission."})
		return
	}

	if reason := rejection(err); reason != "" {
		h.Audit.RegistrationRejected(ctx, r, missionID, actorID, reason)
	}
	h.ErrLog.RenderAssignment(w, r, err)
}

func (h *Handler) viewFor(m models.Mission, userID primitive.ObjectID) any {
	if m.ID.IsZero() {
		return nil
	}
	v := toView(m)
	v.Assigned = m.HasVolunteer(userID)
	return v
}

// rejection names the business rule that refused a roster change, or ""
// when err is not a rule violation.
func rejection(err error) string {
	var (
		ce *assignment.CapacityError
		fe *assignment.ConflictError
		ue *assignment.UnavailableError
		ve *assignment.ValidationError
	)
	switch {
	case errors.As(err, &ce):
		return "capacity"
	case errors.As(err, &fe):
		return "overlap with " + fe.MissionID.Hex()
	case errors.As(err, &ue):
		return "registrations blocked"
	case errors.As(err, &ve):
		return ve.Msg
	}
	return ""
}
