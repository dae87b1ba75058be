// internal/app/features/users/users.go
package users

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/inputval"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/limits"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/normalize"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// createUserInput defines validation rules for creating a user.
type createUserInput struct {
	FullName string `validate:"required,max=200" label:"Full name"`
	Email    string `validate:"required,email,max=254" label:"Email address"`
	Phone    string `validate:"max=40" label:"Phone"`
	Role     string `validate:"required,role" label:"Role"`
}

// ServeList handles GET /users with an optional role filter.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAdmin(w, r); !g.OK {
		return
	}
	var roles []string
	if raw := normalize.Role(r.URL.Query().Get("role")); raw != "" {
		if !models.ValidRole(raw) {
			uierrors.RenderBadRequest(w, r, "Rôle inconnu.")
			return
		}
		roles = append(roles, raw)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user list")
	defer cancel()

	us, err := h.Users.ListByRoles(ctx, roles...)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users failed", err, "")
		return
	}
	if us == nil {
		us = []models.User{}
	}
	response.OK(w, map[string]any{"users": us, "count": len(us)})
}

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r)
	if !g.OK {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		uierrors.RenderBadRequest(w, r, "Formulaire invalide.")
		return
	}

	in := createUserInput{
		FullName: normalize.Name(r.PostFormValue("full_name")),
		Email:    normalize.Email(r.PostFormValue("email")),
		Phone:    strings.TrimSpace(r.PostFormValue("phone")),
		Role:     normalize.Role(r.PostFormValue("role")),
	}
	if in.Role == "" {
		in.Role = models.RoleVolunteer
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, res.All())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user create")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:              in.FullName,
		Email:                 in.Email,
		Phone:                 in.Phone,
		Role:                  in.Role,
		ConsentDataProcessing: checked(r.PostFormValue("consent_data_processing")),
		ConsentCommunications: checked(r.PostFormValue("consent_communications")),
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		uierrors.Write(w, http.StatusConflict, uierrors.Body{Error: uierrors.KindConflict, Message: "Un utilisateur avec cet email existe déjà."})
		return
	case errors.Is(err, userstore.ErrBadRole):
		uierrors.RenderBadRequest(w, r, "Rôle inconnu.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create user failed", err, "")
		return
	}

	h.Audit.AdminAction(ctx, r, audit.EventUserRoleUpdated, g.UserID, &u.ID, map[string]string{"role": u.Role, "created": "true"})
	h.Log.Info("user created", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	response.JSON(w, http.StatusCreated, u)
}

// HandleSetRole handles POST /users/{id}/role. Admins cannot demote
// themselves, so at least one admin always remains reachable.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r)
	if !g.OK {
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		uierrors.RenderBadRequest(w, r, "Formulaire invalide.")
		return
	}
	role := normalize.Role(r.PostFormValue("role"))
	if id == g.UserID && role != models.RoleAdmin {
		uierrors.RenderForbidden(w, r, "Vous ne pouvez pas retirer votre propre rôle d'administrateur.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user set role")
	defer cancel()

	if h.storeError(w, r, h.Users.SetRole(ctx, id, role), "set role failed") {
		return
	}
	h.Audit.AdminAction(ctx, r, audit.EventUserRoleUpdated, g.UserID, &id, map[string]string{"role": role})
	h.Log.Info("user role updated", zap.String("user_id", id.Hex()), zap.String("role", role))
	response.OK(w, response.Changed{Changed: true})
}

// HandleSetCategories handles POST /users/{id}/categories. The form field
// category_id may repeat; an empty list clears responsibilities. Unknown
// category ids are rejected.
func (h *Handler) HandleSetCategories(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r)
	if !g.OK {
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		uierrors.RenderBadRequest(w, r, "Formulaire invalide.")
		return
	}

	seen := make(map[primitive.ObjectID]bool)
	ids := make([]primitive.ObjectID, 0, len(r.PostForm["category_id"]))
	for _, raw := range r.PostForm["category_id"] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !inputval.IsValidObjectID(raw) {
			uierrors.RenderBadRequest(w, r, "Identifiant de catégorie invalide.")
			return
		}
		oid, _ := primitive.ObjectIDFromHex(raw)
		if !seen[oid] {
			seen[oid] = true
			ids = append(ids, oid)
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user set categories")
	defer cancel()

	if len(ids) > 0 {
		existing, err := h.Categories.ExistingIDs(ctx, ids)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "check categories failed", err, "")
			return
		}
		if len(existing) != len(ids) {
			uierrors.RenderBadRequest(w, r, "Catégorie inconnue.")
			return
		}
	}

	if h.storeError(w, r, h.Users.SetResponsibleCategories(ctx, id, ids), "set categories failed") {
		return
	}
	hexes := make([]string, len(ids))
	for i, c := range ids {
		hexes[i] = c.Hex()
	}
	h.Audit.AdminAction(ctx, r, audit.EventUserCategoriesUpdated, g.UserID, &id, map[string]string{"categories": strings.Join(hexes, ",")})
	response.OK(w, response.Changed{Changed: true})
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error, logMsg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, userstore.ErrNotFound):
		uierrors.RenderNotFound(w, r, "Utilisateur introuvable.")
	case errors.Is(err, userstore.ErrBadRole):
		uierrors.RenderBadRequest(w, r, "Rôle inconnu.")
	default:
		h.ErrLog.LogServerError(w, r, logMsg, err, "")
	}
	return true
}

func userID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Identifiant d'utilisateur invalide.")
		return primitive.NilObjectID, false
	}
	return id, true
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1":
		return true
	}
	return false
}
