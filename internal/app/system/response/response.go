// internal/app/system/response/response.go
package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// Changed is the body of roster endpoints. Changed is false when the
// request was a no-op (already assigned, not assigned).
type Changed struct {
	Changed bool   `json:"changed"`
	Mission any    `json:"mission,omitempty"`
	Message string `json:"message,omitempty"`
}
