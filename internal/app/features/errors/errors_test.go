package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/albertduplantin/benevoles3-sub001/internal/app/features/errors"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) uierrors.Body {
	t.Helper()
	var b uierrors.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return b
}

func TestRenderAssignment(t *testing.T) {
	other := primitive.NewObjectID()
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", &assignment.ValidationError{Msg: "bad"}, http.StatusBadRequest, uierrors.KindValidation},
		{"authorization", &assignment.AuthorizationError{}, http.StatusForbidden, uierrors.KindForbidden},
		{"not found", assignment.ErrMissionNotFound, http.StatusNotFound, uierrors.KindNotFound},
		{"capacity", &assignment.CapacityError{MaxVolunteers: 2}, http.StatusConflict, uierrors.KindCapacity},
		{"conflict", &assignment.ConflictError{MissionID: other, Title: "Bar"}, http.StatusConflict, uierrors.KindConflict},
		{"unavailable", &assignment.UnavailableError{Message: "Fermé"}, http.StatusLocked, uierrors.KindUnavailable},
		{"dependency", &assignment.DependencyError{Op: "load", Err: errors.New("down")}, http.StatusInternalServerError, uierrors.KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := uierrors.NewErrorLogger(zap.NewNop())
			rec := httptest.NewRecorder()
			el.RenderAssignment(rec, httptest.NewRequest("POST", "/missions/x/register", nil), tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decode(t, rec); got.Error != tt.kind {
				t.Errorf("kind = %q, want %q", got.Error, tt.kind)
			}
		})
	}
}

func TestRenderAssignment_MessagesSurfaced(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())

	rec := httptest.NewRecorder()
	el.RenderAssignment(rec, httptest.NewRequest("POST", "/", nil), &assignment.UnavailableError{Message: "Inscriptions closes ce soir."})
	if got := decode(t, rec); got.Message != "Inscriptions closes ce soir." {
		t.Errorf("block message = %q", got.Message)
	}

	id := primitive.NewObjectID()
	rec = httptest.NewRecorder()
	el.RenderAssignment(rec, httptest.NewRequest("POST", "/", nil), &assignment.ConflictError{MissionID: id, Title: "Buvette"})
	got := decode(t, rec)
	if got.Mission != id.Hex() {
		t.Errorf("mission = %q, want %q", got.Mission, id.Hex())
	}
}

func TestLogServerError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	el.LogServerError(rec, httptest.NewRequest("GET", "/missions", nil), "list missions failed", errors.New("timeout"), "")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if got := decode(t, rec); got.Message == "" || got.Message == "timeout" {
		t.Errorf("message should be generic, got %q", got.Message)
	}
	entries := logs.FilterMessage("list missions failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/missions" {
		t.Errorf("path field = %v", entries[0].ContextMap()["path"])
	}
}

func TestRenderHelpers(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	rec := httptest.NewRecorder()
	uierrors.RenderUnauthorized(rec, req)
	if rec.Code != http.StatusUnauthorized || rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("unauthorized: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = httptest.NewRecorder()
	uierrors.RenderForbidden(rec, req, "")
	if decode(t, rec).Message == "" {
		t.Error("forbidden should have a default message")
	}

	rec = httptest.NewRecorder()
	uierrors.RenderBadRequest(rec, req, "Titre requis.")
	if rec.Code != http.StatusBadRequest || decode(t, rec).Message != "Titre requis." {
		t.Errorf("bad request: %d %s", rec.Code, rec.Body.String())
	}
}
