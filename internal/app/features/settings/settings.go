// internal/app/features/settings/settings.go
package settings

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/limits"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.uber.org/zap"
)

type settingsView struct {
	RegistrationsBlocked bool       `json:"registrations_blocked"`
	BlockMessage         string     `json:"block_message,omitempty"`
	EffectiveMessage     string     `json:"effective_message,omitempty"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
	UpdatedByName        string     `json:"updated_by_name,omitempty"`
}

func toView(s models.SiteSettings) settingsView {
	v := settingsView{
		RegistrationsBlocked: s.RegistrationsBlocked,
		BlockMessage:         s.BlockMessage,
		UpdatedAt:            s.UpdatedAt,
		UpdatedByName:        s.UpdatedByName,
	}
	if s.RegistrationsBlocked {
		v.EffectiveMessage = s.EffectiveBlockMessage()
	}
	return v
}

// ServeSettings handles GET /settings.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAuth(w, r); !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "settings get")
	defer cancel()

	s, err := h.Settings.Get(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load settings failed", err, "")
		return
	}
	response.OK(w, toView(s))
}

// HandleSettings handles POST /settings with registrations_blocked and
// block_message. The change applies to the next registration attempt.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r)
	if !g.OK {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		uierrors.RenderBadRequest(w, r, "Formulaire invalide.")
		return
	}

	blocked := r.PostFormValue("registrations_blocked")
	msg := strings.TrimSpace(r.PostFormValue("block_message"))
	if utf8.RuneCountInString(msg) > limits.MaxBlockMessageLength {
		uierrors.RenderBadRequest(w, r, fmt.Sprintf("Le message ne doit pas dépasser %d caractères.", limits.MaxBlockMessageLength))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "settings save")
	defer cancel()

	uid := g.UserID
	s := models.SiteSettings{
		RegistrationsBlocked: blocked == "on" || blocked == "true" || blocked == "1",
		BlockMessage:         msg,
		UpdatedByID:          &uid,
		UpdatedByName:        g.Name,
	}
	if err := h.Settings.Save(ctx, s); err != nil {
		h.ErrLog.LogServerError(w, r, "save settings failed", err, "")
		return
	}
	now := time.Now().UTC()
	s.UpdatedAt = &now

	h.Audit.AdminAction(ctx, r, audit.EventSettingsUpdated, g.UserID, nil, map[string]string{
		"registrations_blocked": fmt.Sprint(s.RegistrationsBlocked),
	})
	h.Log.Info("registration kill switch updated",
		zap.Bool("blocked", s.RegistrationsBlocked),
		zap.String("by", g.UserID.Hex()))
	response.OK(w, toView(s))
}
