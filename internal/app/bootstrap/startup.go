// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/policy/missionpolicy"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	categorystore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/categories"
	missionstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/missions"
	settingsstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/settings"
	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auditlog"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/categorycache"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/mailer"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/ratelimit"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/tasks"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/workers"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// notifyPoll is how long the worker blocks on the queue before checking
// for shutdown.
const notifyPoll = 5 * time.Second

// Startup builds the shared services, promotes the configured admin, warms
// the category cache and starts the background worker and scheduler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, userstore.New(deps.MongoDatabase), appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}

	svc := buildServices(appCfg, deps, logger)
	*deps.Services = *svc

	warmCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if entries, err := svc.Resolver.Refresh(warmCtx); err != nil {
		// Not fatal: the first permission check will retry the fetch.
		logger.Warn("category cache warm-up failed", zap.Error(err))
	} else {
		logger.Info("category cache warmed", zap.Int("entries", len(entries)))
	}

	if svc.Worker != nil {
		svc.Worker.Start()
	}
	svc.Scheduler.Start()
	return nil
}

func buildServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *Services {
	db := deps.MongoDatabase
	svc := &Services{
		Missions:   missionstore.New(db),
		Categories: categorystore.New(db),
		Users:      userstore.New(db),
		Settings:   settingsstore.New(db),
		Events:     audit.New(db),
	}
	svc.Audit = auditlog.New(svc.Events, logger, auditlog.Config{Roster: appCfg.AuditLogRoster, Admin: appCfg.AuditLogAdmin})
	svc.Resolver = categorycache.New(svc.Categories, appCfg.CategoryCacheTTL, logger)
	svc.Policy = missionpolicy.New(svc.Resolver)
	svc.Limiter = ratelimit.NewRosterLimiter(appCfg.RegisterRateLimit, appCfg.RegisterRateWindow)

	jobs := []tasks.Job{tasks.CategoryRefreshJob(svc.Resolver, logger, appCfg.CategoryCacheTTL)}

	svc.Notifier = notify.Nop{}
	if deps.Redis != nil {
		svc.Queue = notify.NewQueue(deps.Redis, logger)
		svc.Notifier = notify.NewQueueDispatcher(svc.Queue)

		sender := mailer.New(mailer.Config{
			Host:     appCfg.MailSMTPHost,
			Port:     appCfg.MailSMTPPort,
			User:     appCfg.MailSMTPUser,
			Pass:     appCfg.MailSMTPPass,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
			Timeout:  timeouts.Medium(),
		}, logger)
		processor := notify.NewProcessor(svc.Users, sender, appCfg.SiteName, appCfg.BaseURL, logger)
		svc.Worker = workers.NewNotifyWorker(svc.Queue, processor, logger, notifyPoll)
		jobs = append(jobs, tasks.NotifyQueueMonitorJob(svc.Queue, logger))
	} else {
		logger.Info("notifications disabled; using no-op dispatcher")
	}

	svc.Coordinator = assignment.New(svc.Missions, svc.Settings, svc.Policy, svc.Notifier, logger, appCfg.RosterMaxRetries)
	svc.Coordinator.SetLocation(appCfg.Location)
	svc.Scheduler = tasks.NewScheduler(logger, timeouts.Medium(), jobs...)
	return svc
}

// ensureAdmin promotes the user with the given email to admin, creating
// the account when it does not exist yet.
func ensureAdmin(ctx context.Context, users *userstore.Store, email string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		name := email
		if at := strings.IndexByte(email, '@'); at > 0 {
			name = email[:at]
		}
		created, err := users.Create(ctx, models.User{FullName: name, Email: email, Role: models.RoleAdmin})
		if err != nil {
			return err
		}
		logger.Info("created admin user", zap.String("user_id", created.ID.Hex()))
		return nil
	case err != nil:
		return err
	case u.Role == models.RoleAdmin:
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return err
	}
	logger.Info("promoted user to admin", zap.String("user_id", u.ID.Hex()), zap.String("previous_role", u.Role))
	return nil
}
