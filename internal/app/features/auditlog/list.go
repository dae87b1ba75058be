// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"slices"
	"strings"
	"time"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/paging"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /audit?category=&event_type=&mission=&start_date=&end_date=&start=.
// Dates are YYYY-MM-DD; end_date includes the whole day.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAdmin(w, r); !g.OK {
		return
	}

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	if category != "" && eventTypesForCategory(category) == nil {
		uierrors.RenderBadRequest(w, r, "Catégorie d'événement inconnue.")
		return
	}
	if eventType != "" && !slices.Contains(eventTypesForCategory(category), eventType) {
		uierrors.RenderBadRequest(w, r, "Type d'événement inconnu.")
		return
	}

	start := paging.ParseStart(r)
	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     paging.PageSize,
		Offset:    paging.Offset(start),
	}
	if raw := strings.TrimSpace(q.Get("mission")); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			uierrors.RenderBadRequest(w, r, "Identifiant de mission invalide.")
			return
		}
		filter.MissionID = &id
	}
	if raw := strings.TrimSpace(q.Get("start_date")); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.StartTime = &t
		}
	}
	if raw := strings.TrimSpace(q.Get("end_date")); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			filter.EndTime = &endOfDay
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "")
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "")
		return
	}

	// Batch fetch user names
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) > 0 {
		users, err := h.Users.ListByIDs(ctx, ids)
		if err != nil {
			h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		} else {
			for _, u := range users {
				names[u.ID] = u.FullName
			}
		}
	}
	nameOf := func(id *primitive.ObjectID) string {
		if id == nil {
			return ""
		}
		if n, ok := names[*id]; ok {
			return n
		}
		return id.Hex()
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			ActorName:     nameOf(e.ActorID),
			TargetName:    nameOf(e.UserID),
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.MissionID != nil {
			item.MissionID = e.MissionID.Hex()
		}
		items = append(items, item)
	}

	response.OK(w, listResponse{
		Items: items,
		Page:  paging.ComputeRange(start, len(items), total),
	})
}
