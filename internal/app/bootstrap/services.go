// internal/app/bootstrap/services.go
package bootstrap

import (
	"github.com/albertduplantin/benevoles3-sub001/internal/app/policy/missionpolicy"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	categorystore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/categories"
	missionstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/missions"
	settingsstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/settings"
	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auditlog"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/categorycache"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/ratelimit"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/tasks"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/workers"
)

// Services are the long-lived components built once in Startup.
type Services struct {
	Missions   *missionstore.Store
	Categories *categorystore.Store
	Users      *userstore.Store
	Settings   *settingsstore.Store
	Events     *audit.Store

	Resolver    *categorycache.Resolver
	Policy      *missionpolicy.Evaluator
	Coordinator *assignment.Coordinator
	Notifier    notify.Dispatcher
	Limiter     *ratelimit.RosterLimiter
	Audit       *auditlog.Logger

	// Queue, Worker and Scheduler stay nil when notifications are disabled
	// (the scheduler still runs the category refresh).
	Queue     *notify.Queue
	Worker    *workers.NotifyWorker
	Scheduler *tasks.Scheduler
}
