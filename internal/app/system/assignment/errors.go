// internal/app/system/assignment/errors.go
package assignment

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrAlreadyAssigned signals a no-op: the volunteer is already on the roster.
	ErrAlreadyAssigned = errors.New("volunteer already assigned to mission")
	// ErrNotAssigned signals a no-op: the volunteer is not on the roster.
	ErrNotAssigned = errors.New("volunteer not assigned to mission")
	// ErrMissionNotFound is returned when the mission does not exist.
	ErrMissionNotFound = errors.New("mission not found")
	// ErrTooManyConflicts is wrapped in a DependencyError when the roster kept
	// changing under every retry.
	ErrTooManyConflicts = errors.New("roster update kept conflicting")
)

// ValidationError reports malformed input or a mission that cannot take the
// requested change. Msg is safe to show to users.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// AuthorizationError reports a failed permission check.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	if e.Action == "" {
		return "not permitted"
	}
	return "not permitted: " + e.Action
}

// CapacityError reports a roster that has reached MaxVolunteers.
type CapacityError struct {
	MissionID     primitive.ObjectID
	MaxVolunteers int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("mission full (%d volunteers)", e.MaxVolunteers)
}

// ConflictError reports a schedule overlap with another mission of the volunteer.
type ConflictError struct {
	MissionID primitive.ObjectID // the colliding mission
	Title     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflicts with mission %q", e.Title)
}

// UnavailableError reports that self-service registrations are blocked.
// Message is the admin-configured text, or the default one.
type UnavailableError struct {
	Message string
}

func (e *UnavailableError) Error() string { return e.Message }

// DependencyError wraps a persistence or cache failure. Nothing is assumed
// committed when it is returned.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *DependencyError) Unwrap() error { return e.Err }

func depErr(op string, err error) error {
	return &DependencyError{Op: op, Err: err}
}
