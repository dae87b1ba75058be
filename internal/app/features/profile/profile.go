// internal/app/features/profile/profile.go
package profile

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/inputval"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/limits"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/normalize"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// profileInput defines validation rules for the profile form.
type profileInput struct {
	FullName string `validate:"required,max=200" label:"Full name"`
	Phone    string `validate:"max=40" label:"Phone"`
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile load")
	defer cancel()

	user, err := h.Users.GetByID(ctx, g.UserID)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Utilisateur introuvable.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "")
		return
	}
	response.OK(w, user)
}

// HandleUpdate handles POST /profile. Withdrawing data-processing consent
// hides the user's email and phone from mission contact lists; withdrawing
// communications consent stops notification emails.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		uierrors.RenderBadRequest(w, r, "Formulaire invalide.")
		return
	}

	in := profileInput{
		FullName: normalize.Name(r.PostFormValue("full_name")),
		Phone:    strings.TrimSpace(r.PostFormValue("phone")),
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, res.All())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile update")
	defer cancel()

	err := h.Users.UpdateProfile(ctx, g.UserID, userstore.Profile{
		FullName:              in.FullName,
		Phone:                 in.Phone,
		ConsentDataProcessing: checked(r.PostFormValue("consent_data_processing")),
		ConsentCommunications: checked(r.PostFormValue("consent_communications")),
	})
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Utilisateur introuvable.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update profile failed", err, "")
		return
	}
	h.Log.Info("profile updated", zap.String("user_id", g.UserID.Hex()))
	response.OK(w, response.Changed{Changed: true})
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1":
		return true
	}
	return false
}
