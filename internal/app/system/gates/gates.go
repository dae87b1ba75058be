// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and role, answer with a JSON error when a
// check fails, and return the user context otherwise.
//
// # Three-Tier Authorization Pattern
//
//  1. Route-Level Middleware (auth.RequireSignedIn, auth.RequireRole)
//     Applied in routes.go files when a whole group shares a requirement.
//
//  2. Handler-Level Gates (this package)
//     Used by handlers in mixed-access route groups.
//
//  3. Policy Layer (internal/app/policy/missionpolicy)
//     Used when the answer depends on the mission's category.
//     Policies return (bool, error); callers handle error rendering.
package gates

import (
	"net/http"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the result of an authorization gate check.
type Result struct {
	User   *auth.SessionUser
	Role   string
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

// RequireAuth ensures a user is authenticated.
// If not, it answers 401 and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	u, _ := auth.CurrentUser(r)
	return Result{User: u, Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAdmin ensures the user is authenticated and has the admin role.
func RequireAdmin(w http.ResponseWriter, r *http.Request) Result {
	return RequireAnyRole(w, r, "admin")
}

// RequireAnyRole ensures the user is authenticated and has one of the specified roles.
// If not authenticated, answers 401; with another role, 403.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, allowedRoles ...string) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	for _, allowed := range allowedRoles {
		if res.Role == allowed {
			return res
		}
	}
	uierrors.RenderForbidden(w, r, "")
	return Result{OK: false}
}
