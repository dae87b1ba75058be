// internal/app/features/missions/handler.go
package missions

import (
	"time"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/policy/missionpolicy"
	categorystore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/categories"
	missionstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/missions"
	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auditlog"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler serves mission CRUD and roster endpoints.
type Handler struct {
	Missions   *missionstore.Store
	Categories *categorystore.Store
	Users      *userstore.Store
	Policy     *missionpolicy.Evaluator
	Coord      *assignment.Coordinator
	Notifier   notify.Dispatcher
	Limiter    *ratelimit.RosterLimiter
	Audit      *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger

	// Loc interprets form times without an offset and formats messages.
	Loc *time.Location
	// Now is replaced in tests.
	Now func() time.Time
}

// Deps groups what NewHandler needs.
type Deps struct {
	Missions   *missionstore.Store
	Categories *categorystore.Store
	Users      *userstore.Store
	Policy     *missionpolicy.Evaluator
	Coord      *assignment.Coordinator
	Notifier   notify.Dispatcher
	Limiter    *ratelimit.RosterLimiter
	Audit      *auditlog.Logger
	Loc        *time.Location
}

// NewHandler constructs a missions Handler.
func NewHandler(d Deps, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	loc := d.Loc
	if loc == nil {
		loc = time.UTC
	}
	n := d.Notifier
	if n == nil {
		n = notify.Nop{}
	}
	return &Handler{
		Missions:   d.Missions,
		Categories: d.Categories,
		Users:      d.Users,
		Policy:     d.Policy,
		Coord:      d.Coord,
		Notifier:   n,
		Limiter:    d.Limiter,
		Audit:      d.Audit,
		ErrLog:     errLog,
		Log:        logger,
		Loc:        loc,
		Now:        time.Now,
	}
}
