// internal/app/features/users/handler.go
package users

import (
	"context"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CategoryChecker filters category _ids down to the ones that exist.
type CategoryChecker interface {
	ExistingIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Handler serves user administration: listing, creation, role and
// category responsibility changes.
type Handler struct {
	Users      *userstore.Store
	Categories CategoryChecker
	Audit      *auditlog.Logger
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

// NewHandler constructs a users Handler.
func NewHandler(users *userstore.Store, cats CategoryChecker, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		Categories: cats,
		Audit:      audit,
		Log:        logger,
		ErrLog:     errLog,
	}
}
