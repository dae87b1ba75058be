// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/albertduplantin/benevoles3-sub001/internal/app/features/auditlog"
	categoriesfeature "github.com/albertduplantin/benevoles3-sub001/internal/app/features/categories"
	errorsfeature "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	healthfeature "github.com/albertduplantin/benevoles3-sub001/internal/app/features/health"
	missionsfeature "github.com/albertduplantin/benevoles3-sub001/internal/app/features/missions"
	profilefeature "github.com/albertduplantin/benevoles3-sub001/internal/app/features/profile"
	settingsfeature "github.com/albertduplantin/benevoles3-sub001/internal/app/features/settings"
	usersfeature "github.com/albertduplantin/benevoles3-sub001/internal/app/features/users"
	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed, so deps.Services is populated.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on every request, so role and category changes apply immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	svc := deps.Services
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	var healthHandler *healthfeature.Handler
	if deps.Redis != nil {
		healthHandler = healthfeature.NewHandler(deps.MongoClient, deps.Redis, svc.Resolver, logger)
	} else {
		healthHandler = healthfeature.NewHandler(deps.MongoClient, nil, svc.Resolver, logger)
	}
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Missions and rosters
	missionsHandler := missionsfeature.NewHandler(missionsfeature.Deps{
		Missions:   svc.Missions,
		Categories: svc.Categories,
		Users:      svc.Users,
		Policy:     svc.Policy,
		Coord:      svc.Coordinator,
		Notifier:   svc.Notifier,
		Limiter:    svc.Limiter,
		Audit:      svc.Audit,
		Loc:        appCfg.Location,
	}, errLog, logger)
	r.Mount("/missions", missionsfeature.Routes(missionsHandler, sessionMgr))

	// Categories
	categoriesHandler := categoriesfeature.NewHandler(svc.Categories, svc.Missions, svc.Resolver, svc.Audit, errLog, logger)
	r.Mount("/categories", categoriesfeature.Routes(categoriesHandler, sessionMgr))

	// Registration kill switch
	settingsHandler := settingsfeature.NewHandler(svc.Settings, svc.Audit, errLog, logger)
	r.Route("/settings", func(sr chi.Router) {
		settingsHandler.MountRoutes(sr, sessionMgr)
	})

	// Own profile and consents
	profileHandler := profilefeature.NewHandler(svc.Users, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// User administration
	usersHandler := usersfeature.NewHandler(svc.Users, svc.Categories, svc.Audit, errLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	// Audit trail
	auditHandler := auditlogfeature.NewHandler(svc.Events, svc.Users, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}
