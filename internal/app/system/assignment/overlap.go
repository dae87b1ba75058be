// internal/app/system/assignment/overlap.go
package assignment

import (
	"sort"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// MissionsOverlap reports whether two scheduled missions overlap in time.
// Ongoing missions never overlap anything.
func MissionsOverlap(a, b *models.Mission) bool {
	if !a.IsScheduled() || !b.IsScheduled() {
		return false
	}
	return Overlaps(*a.StartAt, *a.EndAt, *b.StartAt, *b.EndAt)
}

// firstOverlap returns the first mission in others (other than m itself,
// and not cancelled) that overlaps m, or nil.
func firstOverlap(m *models.Mission, others []models.Mission) *models.Mission {
	if !m.IsScheduled() {
		return nil
	}
	for i := range others {
		o := &others[i]
		if o.ID == m.ID || o.Status == models.MissionStatusCancelled {
			continue
		}
		if MissionsOverlap(m, o) {
			return o
		}
	}
	return nil
}

// MissionRef is the part of a mission shown in a conflict report.
type MissionRef struct {
	ID      primitive.ObjectID `json:"id"`
	Title   string             `json:"title"`
	StartAt time.Time          `json:"start_at"`
	EndAt   time.Time          `json:"end_at"`
}

// Conflict is a pair of overlapping missions sharing a volunteer. A starts
// no later than B.
type Conflict struct {
	VolunteerID primitive.ObjectID `json:"volunteer_id"`
	A           MissionRef         `json:"a"`
	B           MissionRef         `json:"b"`
}

// FindConflicts returns, for every volunteer, each pair of their scheduled
// missions that overlap. Cancelled missions are ignored. Results are ordered
// by volunteer, then by the start of A, then by the start of B.
func FindConflicts(missions []models.Mission) []Conflict {
	byVolunteer := make(map[primitive.ObjectID][]*models.Mission)
	for i := range missions {
		m := &missions[i]
		if !m.IsScheduled() || m.Status == models.MissionStatusCancelled {
			continue
		}
		for _, v := range m.Volunteers {
			byVolunteer[v] = append(byVolunteer[v], m)
		}
	}

	var out []Conflict
	for vid, ms := range byVolunteer {
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].StartAt.Before(*ms[j].StartAt) })
		for i := 0; i < len(ms); i++ {
			for j := i + 1; j < len(ms); j++ {
				if !ms[j].StartAt.Before(*ms[i].EndAt) {
					break // sorted by start: nothing later can overlap ms[i]
				}
				if MissionsOverlap(ms[i], ms[j]) {
					out = append(out, Conflict{VolunteerID: vid, A: ref(ms[i]), B: ref(ms[j])})
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].VolunteerID != out[j].VolunteerID {
			return out[i].VolunteerID.Hex() < out[j].VolunteerID.Hex()
		}
		if !out[i].A.StartAt.Equal(out[j].A.StartAt) {
			return out[i].A.StartAt.Before(out[j].A.StartAt)
		}
		return out[i].B.StartAt.Before(out[j].B.StartAt)
	})
	return out
}

func ref(m *models.Mission) MissionRef {
	return MissionRef{ID: m.ID, Title: m.Title, StartAt: *m.StartAt, EndAt: *m.EndAt}
}
