// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"go.uber.org/zap"
)

type Handler struct {
	Events *audit.Store
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler.
func NewHandler(events *audit.Store, users *userstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Users:  users,
		Log:    logger,
		ErrLog: errLog,
	}
}
