// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/store/audit"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/paging"
)

// listItem represents a single audit event row.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	MissionID     string            `json:"mission_id,omitempty"`
	ActorName     string            `json:"actor,omitempty"`  // resolved from ActorID
	TargetName    string            `json:"target,omitempty"` // resolved from UserID
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Items []listItem   `json:"items"`
	Page  paging.Range `json:"page"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	rosterEvents := []string{
		audit.EventVolunteerRegistered,
		audit.EventVolunteerUnregistered,
		audit.EventVolunteerAssigned,
		audit.EventVolunteerUnassigned,
		audit.EventRegistrationRejected,
	}

	adminEvents := []string{
		audit.EventMissionCreated,
		audit.EventMissionUpdated,
		audit.EventMissionDeleted,
		audit.EventCategoryCreated,
		audit.EventCategoryUpdated,
		audit.EventCategoryArchived,
		audit.EventCategoryDeleted,
		audit.EventSettingsUpdated,
		audit.EventUserRoleUpdated,
		audit.EventUserCategoriesUpdated,
		audit.EventIncompleteBroadcast,
	}

	switch category {
	case audit.CategoryRoster:
		return rosterEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(rosterEvents)+len(adminEvents))
		all = append(all, rosterEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}
