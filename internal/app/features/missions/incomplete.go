// internal/app/features/missions/incomplete.go
package missions

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	missionstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/missions"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.uber.org/zap"
)

func (h *Handler) incomplete(ctx context.Context) ([]models.Mission, error) {
	ms, err := h.Missions.List(ctx, missionstore.Filter{Status: models.MissionStatusPublished})
	if err != nil {
		return nil, err
	}
	return assignment.IncompleteMissions(ms, h.Now()), nil
}

// ServeIncomplete handles GET /missions/incomplete (admin): published
// missions that still need volunteers, with the message a broadcast would send.
func (h *Handler) ServeIncomplete(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAdmin(w, r); !g.OK {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "incomplete missions")
	defer cancel()

	ms, err := h.incomplete(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list missions failed", err, "")
		return
	}
	views := make([]missionView, 0, len(ms))
	for _, m := range ms {
		views = append(views, toView(m))
	}
	response.OK(w, map[string]any{
		"missions": views,
		"count":    len(views),
		"preview":  assignment.BuildIncompleteMessage(ms, h.Loc),
	})
}

// HandleNotifyIncomplete handles POST /missions/incomplete/notify (admin).
// Form field target is volunteers (default), responsibles or all.
func (h *Handler) HandleNotifyIncomplete(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r)
	if !g.OK {
		return
	}

	raw := r.PostFormValue("target")
	if raw == "" {
		raw = string(notify.TargetVolunteers)
	}
	target, err := notify.ParseTarget(raw)
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Destinataires inconnus.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "incomplete broadcast")
	defer cancel()

	ms, err := h.incomplete(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list missions failed", err, "")
		return
	}
	if len(ms) == 0 {
		response.OK(w, response.Changed{Message: "Toutes les missions sont complètes."})
		return
	}

	if err := h.Notifier.Broadcast(ctx, target, assignment.BuildIncompleteMessage(ms, h.Loc)); err != nil {
		h.ErrLog.LogServerError(w, r, "incomplete broadcast failed", err, "L'envoi a échoué. Réessayez plus tard.")
		return
	}
	h.Audit.AdminAction(ctx, r, audit.EventIncompleteBroadcast, g.UserID, nil, map[string]string{
		"target":   string(target),
		"missions": strconv.Itoa(len(ms)),
	})
	h.Log.Info("incomplete missions broadcast queued",
		zap.String("target", string(target)),
		zap.Int("missions", len(ms)))
	response.OK(w, response.Changed{Changed: true, Message: strconv.Itoa(len(ms)) + " mission(s) signalée(s)."})
}
