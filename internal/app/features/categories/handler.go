// internal/app/features/categories/handler.go
package categories

import (
	"context"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	categorystore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/categories"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auditlog"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/categorycache"
	"go.uber.org/zap"
)

// MissionCounter reports how many missions use a category value.
type MissionCounter interface {
	CountByCategory(ctx context.Context, value string) (int64, error)
}

// Handler serves category administration. Every successful write
// invalidates the category cache so permission checks see it at once.
type Handler struct {
	Categories *categorystore.Store
	Missions   MissionCounter
	Resolver   *categorycache.Resolver
	Audit      *auditlog.Logger
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

// NewHandler constructs a categories Handler.
func NewHandler(cats *categorystore.Store, missions MissionCounter, resolver *categorycache.Resolver, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Categories: cats,
		Missions:   missions,
		Resolver:   resolver,
		Audit:      audit,
		Log:        logger,
		ErrLog:     errLog,
	}
}
