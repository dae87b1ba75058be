// internal/app/features/settings/handler.go
package settings

import (
	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	settingsstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/settings"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler owns the site settings endpoints.
type Handler struct {
	Settings *settingsstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a Handler bound to the settings store.
func NewHandler(store *settingsstore.Store, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Settings: store,
		Audit:    audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
