// internal/app/features/categories/categories.go
package categories

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	categorystore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/categories"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/limits"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/normalize"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /categories. Admins may pass all=1 to include
// archived categories.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "category list")
	defer cancel()

	activeOnly := !(g.Role == models.RoleAdmin && r.URL.Query().Get("all") == "1")
	groups, err := h.Categories.ListGrouped(ctx, activeOnly)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list categories failed", err, "")
		return
	}
	if groups == nil {
		groups = []models.CategoryGroup{}
	}
	response.OK(w, map[string]any{"groups": groups})
}

type categoryForm struct {
	Value  string
	Label  string
	Group  string
	Order  int
	Active bool
}

func parseForm(w http.ResponseWriter, r *http.Request) (categoryForm, string) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		return categoryForm{}, "Formulaire invalide."
	}
	f := categoryForm{
		Value:  normalize.CategoryValue(r.PostFormValue("value")),
		Label:  strings.TrimSpace(r.PostFormValue("label")),
		Group:  strings.TrimSpace(r.PostFormValue("group")),
		Active: r.PostFormValue("active") != "false" && r.PostFormValue("active") != "0",
	}
	if raw := strings.TrimSpace(r.PostFormValue("order")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, "L'ordre doit être un entier."
		}
		f.Order = n
	}
	if utf8.RuneCountInString(f.Label) > limits.MaxTitleLength {
		return f, fmt.Sprintf("Le libellé ne doit pas dépasser %d caractères.", limits.MaxTitleLength)
	}
	return f, ""
}

// HandleCreate handles POST /categories.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r)
	if !g.OK {
		return
	}
	f, msg := parseForm(w, r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "category create")
	defer cancel()

	c, err := h.Categories.Create(ctx, models.Category{Value: f.Value, Label: f.Label, Group: f.Group, Order: f.Order})
	if h.storeError(w, r, err, "create category failed") {
		return
	}
	h.Resolver.Invalidate()
	h.Audit.AdminAction(ctx, r, audit.EventCategoryCreated, g.UserID, nil, map[string]string{"value": c.Value})
	h.Log.Info("category created", zap.String("value", c.Value))
	response.JSON(w, http.StatusCreated, c)
}

// HandleEdit handles POST /categories/{id}/edit. The value never changes.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r)
	if !g.OK {
		return
	}
	id, ok := categoryID(w, r)
	if !ok {
		return
	}
	f, msg := parseForm(w, r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "category edit")
	defer cancel()

	err := h.Categories.Update(ctx, id, f.Label, f.Group, f.Order, f.Active)
	if h.storeError(w, r, err, "update category failed") {
		return
	}
	h.Resolver.Invalidate()

	c, err := h.Categories.GetByID(ctx, id)
	if h.storeError(w, r, err, "reload category failed") {
		return
	}
	h.Audit.AdminAction(ctx, r, audit.EventCategoryUpdated, g.UserID, nil, map[string]string{"value": c.Value})
	response.OK(w, c)
}

// HandleArchive handles POST /categories/{id}/archive. Archived categories
// keep their missions but no longer grant responsibility.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r)
	if !g.OK {
		return
	}
	id, ok := categoryID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "category archive")
	defer cancel()

	if h.storeError(w, r, h.Categories.Archive(ctx, id), "archive category failed") {
		return
	}
	h.Resolver.Invalidate()
	h.Audit.AdminAction(ctx, r, audit.EventCategoryArchived, g.UserID, nil, map[string]string{"id": id.Hex()})
	response.OK(w, response.Changed{Changed: true})
}

// HandleDelete handles POST /categories/{id}/delete. A category still used
// by missions cannot be deleted; archive it instead.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r)
	if !g.OK {
		return
	}
	id, ok := categoryID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "category delete")
	defer cancel()

	c, err := h.Categories.GetByID(ctx, id)
	if h.storeError(w, r, err, "load category failed") {
		return
	}
	n, err := h.Missions.CountByCategory(ctx, c.Value)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count missions failed", err, "")
		return
	}
	if n > 0 {
		uierrors.Write(w, http.StatusConflict, uierrors.Body{
			Error:   uierrors.KindConflict,
			Message: fmt.Sprintf("%d mission(s) utilisent cette catégorie. Archivez-la plutôt.", n),
		})
		return
	}

	if h.storeError(w, r, h.Categories.Delete(ctx, id, h.Log), "delete category failed") {
		return
	}
	h.Resolver.Invalidate()
	h.Audit.AdminAction(ctx, r, audit.EventCategoryDeleted, g.UserID, nil, map[string]string{"value": c.Value})
	h.Log.Info("category deleted", zap.String("value", c.Value))
	response.OK(w, response.Changed{Changed: true})
}

// storeError renders err when it is not nil and reports whether it did.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error, logMsg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, categorystore.ErrNotFound):
		uierrors.RenderNotFound(w, r, "Catégorie introuvable.")
	case errors.Is(err, categorystore.ErrDuplicateValue):
		uierrors.Write(w, http.StatusConflict, uierrors.Body{Error: uierrors.KindConflict, Message: "Une catégorie avec cette valeur existe déjà."})
	case errors.Is(err, categorystore.ErrInvalidValue):
		uierrors.RenderBadRequest(w, r, "La valeur doit être en minuscules (a-z, 0-9, - ou _).")
	case errors.Is(err, categorystore.ErrLabelRequired):
		uierrors.RenderBadRequest(w, r, "Le libellé est requis.")
	default:
		h.ErrLog.LogServerError(w, r, logMsg, err, "")
	}
	return true
}

func categoryID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Identifiant de catégorie invalide.")
		return primitive.NilObjectID, false
	}
	return id, true
}
