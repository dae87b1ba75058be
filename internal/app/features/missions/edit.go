// internal/app/features/missions/edit.go
package missions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	categorystore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/categories"
	missionstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/missions"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/htmlsanitize"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/limits"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/normalize"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.uber.org/zap"
)

const localTimeLayout = "2006-01-02T15:04"

// missionInput is the parsed, not yet validated, mission form.
type missionInput struct {
	Title         string
	Description   string
	Category      string
	Type          string
	StartAt       *time.Time
	EndAt         *time.Time
	Location      string
	MaxVolunteers int
	Status        string
	Urgent        bool
}

// parseTime accepts RFC3339 or a local "2006-01-02T15:04" read in loc.
func parseTime(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation(localTimeLayout, raw, loc)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func (h *Handler) parseMissionForm(r *http.Request) (missionInput, string) {
	in := missionInput{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: htmlsanitize.Sanitize(strings.TrimSpace(r.PostFormValue("description"))),
		Category:    normalize.CategoryValue(r.PostFormValue("category")),
		Type:        normalize.Status(r.PostFormValue("type")),
		Location:    strings.TrimSpace(r.PostFormValue("location")),
		Status:      normalize.Status(r.PostFormValue("status")),
		Urgent:      r.PostFormValue("urgent") == "on" || r.PostFormValue("urgent") == "true" || r.PostFormValue("urgent") == "1",
	}
	if in.Type == "" {
		in.Type = models.MissionTypeScheduled
	}
	if in.Status == "" {
		in.Status = models.MissionStatusDraft
	}

	n, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("max_volunteers")))
	if err != nil {
		return in, "Le nombre de bénévoles doit être un entier."
	}
	in.MaxVolunteers = n

	if in.StartAt, err = parseTime(r.PostFormValue("start_at"), h.Loc); err != nil {
		return in, "Date de début invalide."
	}
	if in.EndAt, err = parseTime(r.PostFormValue("end_at"), h.Loc); err != nil {
		return in, "Date de fin invalide."
	}
	return in, ""
}

// validate checks the input against itself and the current roster size.
func (in *missionInput) validate(rosterSize int) string {
	switch {
	case in.Title == "":
		return "Le titre est requis."
	case utf8.RuneCountInString(in.Title) > limits.MaxTitleLength:
		return fmt.Sprintf("Le titre ne doit pas dépasser %d caractères.", limits.MaxTitleLength)
	case len(in.Description) > limits.MaxDescriptionSize:
		return "La description est trop longue."
	case in.Category == "":
		return "La catégorie est requise."
	case in.MaxVolunteers < 1:
		return "Il faut au moins une place."
	case in.MaxVolunteers < rosterSize:
		return fmt.Sprintf("La mission compte déjà %d bénévoles.", rosterSize)
	}

	switch in.Type {
	case models.MissionTypeScheduled:
		if in.StartAt == nil || in.EndAt == nil {
			return "Une mission planifiée doit avoir un début et une fin."
		}
		if !in.StartAt.Before(*in.EndAt) {
			return "La fin doit être après le début."
		}
	case models.MissionTypeOngoing:
		in.StartAt, in.EndAt = nil, nil
	default:
		return "Type de mission inconnu."
	}

	// full is derived from the roster, never chosen.
	if in.Status == models.MissionStatusFull {
		in.Status = models.MissionStatusPublished
	}
	if !models.ValidMissionStatus(in.Status) {
		return "Statut inconnu."
	}
	return ""
}

func (in missionInput) apply(m *models.Mission) {
	m.Title = in.Title
	m.Description = in.Description
	m.Category = in.Category
	m.Type = in.Type
	m.StartAt = in.StartAt
	m.EndAt = in.EndAt
	m.Location = in.Location
	m.MaxVolunteers = in.MaxVolunteers
	m.Status = in.Status
	m.Urgent = in.Urgent
}

// checkCategory answers 400 when value does not name an active category.
func (h *Handler) checkCategory(ctx context.Context, w http.ResponseWriter, r *http.Request, value string) bool {
	c, err := h.Categories.GetByValue(ctx, value)
	if errors.Is(err, categorystore.ErrNotFound) || (err == nil && !c.Active) {
		uierrors.RenderBadRequest(w, r, "Catégorie inconnue ou archivée.")
		return false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load category failed", err, "")
		return false
	}
	return true
}

// HandleCreate handles POST /missions.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mission create")
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		uierrors.RenderBadRequest(w, r, "Formulaire invalide.")
		return
	}
	in, msg := h.parseMissionForm(r)
	if msg == "" {
		msg = in.validate(0)
	}
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg)
		return
	}
	if !h.allowed(w, r, func() (bool, error) { return h.Policy.CanCreate(ctx, g.User, in.Category) }) {
		return
	}
	if !h.checkCategory(ctx, w, r, in.Category) {
		return
	}

	var m models.Mission
	in.apply(&m)
	creator := g.UserID
	m.CreatedBy = &creator
	m, err := h.Missions.Create(ctx, m)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create mission failed", err, "")
		return
	}
	h.Audit.MissionChanged(ctx, r, audit.EventMissionCreated, m.ID, g.UserID, m.Title)
	h.Log.Info("mission created", zap.String("mission_id", m.ID.Hex()), zap.String("category", m.Category))

	v := toView(m)
	v.CanEdit = true
	response.JSON(w, http.StatusCreated, v)
}

// HandleEdit handles POST /missions/{id}/edit. The form carries the
// version it was built from; a stale version answers 409.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mission edit")
	defer cancel()

	m, ok := h.loadMission(ctx, w, r)
	if !ok {
		return
	}
	if !h.allowed(w, r, func() (bool, error) { return h.Policy.CanEdit(ctx, g.User, m.Category) }) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		uierrors.RenderBadRequest(w, r, "Formulaire invalide.")
		return
	}
	in, msg := h.parseMissionForm(r)
	if msg == "" {
		msg = in.validate(len(m.Volunteers))
	}
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg)
		return
	}
	if in.Category != m.Category {
		if !h.allowed(w, r, func() (bool, error) { return h.Policy.CanEdit(ctx, g.User, in.Category) }) {
			return
		}
		if !h.checkCategory(ctx, w, r, in.Category) {
			return
		}
	}
	if raw := strings.TrimSpace(r.PostFormValue("version")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			uierrors.RenderBadRequest(w, r, "Version invalide.")
			return
		}
		if v != m.Version {
			writeStale(w)
			return
		}
	}

	wasCancelled := m.Status == models.MissionStatusCancelled
	in.apply(&m)
	err := h.Missions.Update(ctx, m)
	if errors.Is(err, missionstore.ErrVersionConflict) {
		writeStale(w)
		return
	}
	if errors.Is(err, missionstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Mission introuvable.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update mission failed", err, "")
		return
	}
	m.Version++
	h.Audit.MissionChanged(ctx, r, audit.EventMissionUpdated, m.ID, g.UserID, m.Title)

	if !wasCancelled && m.Status == models.MissionStatusCancelled && len(m.Volunteers) > 0 {
		h.notifyRoster(ctx, m, notify.Message{
			Title: "Mission annulée : " + m.Title,
			Body:  "La mission « " + m.Title + " » à laquelle vous étiez inscrit(e) a été annulée.",
			Link:  "/missions/" + m.ID.Hex(),
		})
	}

	v := toView(m)
	v.CanEdit = true
	v.Assigned = m.HasVolunteer(g.UserID)
	response.OK(w, v)
}

// HandleDelete handles POST /missions/{id}/delete. A mission with
// volunteers is only deleted with confirm=true; they are told about it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mission delete")
	defer cancel()

	m, ok := h.loadMission(ctx, w, r)
	if !ok {
		return
	}
	if !h.allowed(w, r, func() (bool, error) { return h.Policy.CanDelete(ctx, g.User, m.Category) }) {
		return
	}

	confirm := r.URL.Query().Get("confirm")
	if confirm == "" {
		confirm = r.PostFormValue("confirm")
	}
	if len(m.Volunteers) > 0 && confirm != "true" && confirm != "1" {
		uierrors.Write(w, http.StatusConflict, uierrors.Body{
			Error:   uierrors.KindConflict,
			Message: fmt.Sprintf("La mission compte %d bénévole(s). Confirmez la suppression.", len(m.Volunteers)),
			Mission: m.ID.Hex(),
		})
		return
	}

	err := h.Missions.Delete(ctx, m.ID, m.Version)
	if errors.Is(err, missionstore.ErrVersionConflict) {
		writeStale(w)
		return
	}
	if errors.Is(err, missionstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Mission introuvable.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete mission failed", err, "")
		return
	}
	h.Audit.MissionChanged(ctx, r, audit.EventMissionDeleted, m.ID, g.UserID, m.Title)
	h.Log.Info("mission deleted", zap.String("mission_id", m.ID.Hex()), zap.Int("volunteers", len(m.Volunteers)))

	if len(m.Volunteers) > 0 {
		h.notifyRoster(ctx, m, notify.Message{
			Title: "Mission supprimée : " + m.Title,
			Body:  "La mission « " + m.Title + " » à laquelle vous étiez inscrit(e) a été supprimée.",
			Link:  "/missions",
		})
	}
	response.OK(w, response.Changed{Changed: true})
}

// notifyRoster tells every volunteer of m. Failures are logged only.
func (h *Handler) notifyRoster(ctx context.Context, m models.Mission, msg notify.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	if err := h.Notifier.NotifyUsers(ctx, m.VolunteerHexes(), msg); err != nil {
		h.Log.Warn("notification dispatch failed",
			zap.String("mission_id", m.ID.Hex()),
			zap.Error(err))
	}
}

func writeStale(w http.ResponseWriter) {
	uierrors.Write(w, http.StatusConflict, uierrors.Body{
		Error:   uierrors.KindConflict,
		Message: "La mission a été modifiée entre-temps. Rechargez la page.",
	})
}
