// internal/domain/models/mission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mission types.
const (
	MissionTypeScheduled = "scheduled" // has a start/end instant
	MissionTypeOngoing   = "ongoing"   // no time bounds
)

// Mission statuses.
const (
	MissionStatusDraft     = "draft"
	MissionStatusPublished = "published"
	MissionStatusFull      = "full"
	MissionStatusCancelled = "cancelled"
	MissionStatusCompleted = "completed"
)

// Mission is a volunteer shift or task.
//
// NOTE:
//   - Category holds the category *value* (a stable slug), never a category _id.
//   - Version is bumped on every roster write; roster updates are conditional on it.
//   - Status "full" is derived, see EffectiveStatus.
type Mission struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category" json:"category"`
	Type        string             `bson:"type" json:"type"`
	StartAt     *time.Time         `bson:"start_at,omitempty" json:"start_at,omitempty"`
	EndAt       *time.Time         `bson:"end_at,omitempty" json:"end_at,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`

	MaxVolunteers int    `bson:"max_volunteers" json:"max_volunteers"`
	Status        string `bson:"status" json:"status"`
	Urgent        bool   `bson:"urgent" json:"urgent"`

	Volunteers   []primitive.ObjectID `bson:"volunteers" json:"volunteers"`
	Responsibles []primitive.ObjectID `bson:"responsibles,omitempty" json:"responsibles,omitempty"`

	Version   int64               `bson:"version" json:"version"`
	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// IsScheduled reports whether the mission has time bounds that take part in overlap checks.
func (m *Mission) IsScheduled() bool {
	return m.Type == MissionTypeScheduled && m.StartAt != nil && m.EndAt != nil
}

// HasVolunteer reports whether id is on the roster.
func (m *Mission) HasVolunteer(id primitive.ObjectID) bool {
	for _, v := range m.Volunteers {
		if v == id {
			return true
		}
	}
	return false
}

// OpenSlots returns the number of places left (never negative).
func (m *Mission) OpenSlots() int {
	n := m.MaxVolunteers - len(m.Volunteers)
	if n < 0 {
		return 0
	}
	return n
}

// EffectiveStatus derives the status from the roster: a published or full
// mission is "full" exactly when its roster has reached capacity, and
// "published" otherwise. Draft, cancelled and completed are returned as stored.
func (m *Mission) EffectiveStatus() string {
	switch m.Status {
	case MissionStatusPublished, MissionStatusFull:
		if m.MaxVolunteers > 0 && len(m.Volunteers) >= m.MaxVolunteers {
			return MissionStatusFull
		}
		return MissionStatusPublished
	default:
		return m.Status
	}
}

// VolunteerHexes returns the roster as hex strings.
func (m *Mission) VolunteerHexes() []string {
	out := make([]string, 0, len(m.Volunteers))
	for _, v := range m.Volunteers {
		out = append(out, v.Hex())
	}
	return out
}

// ValidMissionStatus reports whether s is a known mission status.
func ValidMissionStatus(s string) bool {
	switch s {
	case MissionStatusDraft, MissionStatusPublished, MissionStatusFull,
		MissionStatusCancelled, MissionStatusCompleted:
		return true
	}
	return false
}
