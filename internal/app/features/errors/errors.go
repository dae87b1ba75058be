// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/authz"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error   string `json:"error"`             // machine-readable kind
	Message string `json:"message"`           // shown to the user
	Mission string `json:"mission,omitempty"` // colliding mission, for conflicts
}

// Error kinds.
const (
	KindValidation   = "validation"
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
	KindNotFound     = "not_found"
	KindCapacity     = "capacity"
	KindConflict     = "conflict"
	KindUnavailable  = "unavailable"
	KindRateLimited  = "rate_limited"
	KindServer       = "server_error"
)

// Write sends an error body with the given status.
func Write(w http.ResponseWriter, status int, body Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// RenderUnauthorized reports that a signed-in user is required.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusUnauthorized, Body{Error: KindUnauthorized, Message: "Connexion requise."})
}

// RenderForbidden reports a failed permission check with msg, or a generic message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "Action non autorisée."
	}
	Write(w, http.StatusForbidden, Body{Error: KindForbidden, Message: msg})
}

// RenderNotFound reports a missing resource.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "Introuvable."
	}
	Write(w, http.StatusNotFound, Body{Error: KindNotFound, Message: msg})
}

// RenderBadRequest reports invalid input; msg is shown verbatim.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	Write(w, http.StatusBadRequest, Body{Error: KindValidation, Message: msg})
}

// ErrorLogger logs server errors before answering with a generic message.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// LogServerError logs err with logMsg and the request context, then
// answers 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	_, _, uid, _ := authz.UserCtx(r)
	e.Log.Error(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("user_id", uid.Hex()))
	if userMsg == "" {
		userMsg = "Une erreur interne est survenue."
	}
	Write(w, http.StatusInternalServerError, Body{Error: KindServer, Message: userMsg})
}

// RenderAssignment maps a roster error onto its HTTP status:
// validation 400, authorization 403, missing mission 404, capacity and
// conflict 409, blocked registrations 423, dependency failures 500.
// The no-op sentinels are not errors and must be handled by the caller.
func (e *ErrorLogger) RenderAssignment(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *assignment.ValidationError
		ae *assignment.AuthorizationError
		ce *assignment.CapacityError
		fe *assignment.ConflictError
		ue *assignment.UnavailableError
	)
	switch {
	case stderrors.As(err, &ve):
		Write(w, http.StatusBadRequest, Body{Error: KindValidation, Message: ve.Msg})
	case stderrors.As(err, &ae):
		RenderForbidden(w, r, "")
	case stderrors.Is(err, assignment.ErrMissionNotFound):
		RenderNotFound(w, r, "Mission introuvable.")
	case stderrors.As(err, &ce):
		Write(w, http.StatusConflict, Body{Error: KindCapacity, Message: "La mission est complète."})
	case stderrors.As(err, &fe):
		Write(w, http.StatusConflict, Body{
			Error:   KindConflict,
			Message: "Vous êtes déjà inscrit(e) à une mission sur ce créneau : « " + fe.Title + " ».",
			Mission: fe.MissionID.Hex(),
		})
	case stderrors.As(err, &ue):
		Write(w, http.StatusLocked, Body{Error: KindUnavailable, Message: ue.Message})
	default:
		e.LogServerError(w, r, "roster change failed", err, "")
	}
}
