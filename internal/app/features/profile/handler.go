// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"go.uber.org/zap"
)

// Handler owns the signed-in user's own profile.
type Handler struct {
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a profile Handler.
func NewHandler(users *userstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  users,
		Log:    logger,
		ErrLog: errLog,
	}
}
