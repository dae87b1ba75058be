// internal/app/policy/missionpolicy/missionpolicy.go
package missionpolicy

import (
	"context"
	"strings"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
)

// CategoryResolver maps category _ids (hex) to the set of their values.
type CategoryResolver interface {
	ValuesFor(ctx context.Context, ids []string) (map[string]struct{}, error)
}

// Evaluator decides what a user may do with missions of a category.
// It only reads, so it is safe for concurrent use.
//
// Each method returns an error only when category resolution fails, so
// callers can tell "not authorized" (false, nil) from a failed lookup.
type Evaluator struct {
	resolver CategoryResolver
}

// New creates an Evaluator backed by the category resolver.
func New(resolver CategoryResolver) *Evaluator {
	return &Evaluator{resolver: resolver}
}

// CanEdit reports whether u may edit missions in categoryValue:
// - Admins always can
// - Category responsibles can when one of their categories resolves to categoryValue
// - Everyone else cannot
func (e *Evaluator) CanEdit(ctx context.Context, u *auth.SessionUser, categoryValue string) (bool, error) {
	if u == nil {
		return false, nil
	}
	switch strings.ToLower(u.Role) {
	case models.RoleAdmin:
		return true, nil
	case models.RoleCategoryResponsible:
		return e.responsibleFor(ctx, u, categoryValue)
	default:
		return false, nil
	}
}

// CanDelete follows the same rule as CanEdit.
func (e *Evaluator) CanDelete(ctx context.Context, u *auth.SessionUser, categoryValue string) (bool, error) {
	return e.CanEdit(ctx, u, categoryValue)
}

// CanCreate follows the same rule as CanEdit for the category of the new mission.
func (e *Evaluator) CanCreate(ctx context.Context, u *auth.SessionUser, categoryValue string) (bool, error) {
	return e.CanEdit(ctx, u, categoryValue)
}

// CanViewContacts reports whether u may see the contact details of a
// mission's volunteers. On top of CanEdit, a volunteer on the roster may
// see the other volunteers. Roster membership is checked first and needs
// no category resolution.
func (e *Evaluator) CanViewContacts(ctx context.Context, u *auth.SessionUser, categoryValue string, volunteerIDs []string) (bool, error) {
	if u == nil {
		return false, nil
	}
	for _, id := range volunteerIDs {
		if id == u.ID {
			return true, nil
		}
	}
	return e.CanEdit(ctx, u, categoryValue)
}

func (e *Evaluator) responsibleFor(ctx context.Context, u *auth.SessionUser, categoryValue string) (bool, error) {
	if categoryValue == "" || len(u.ResponsibleForCategories) == 0 {
		return false, nil
	}
	values, err := e.resolver.ValuesFor(ctx, u.ResponsibleForCategories)
	if err != nil {
		return false, err
	}
	_, ok := values[categoryValue]
	return ok, nil
}
