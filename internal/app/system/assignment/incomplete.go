// internal/app/system/assignment/incomplete.go
package assignment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
)

// IncompleteMissions returns the published missions that still have open
// slots and have not ended by now. Urgent missions come first, then
// scheduled missions by start time, then ongoing missions by title.
func IncompleteMissions(missions []models.Mission, now time.Time) []models.Mission {
	var out []models.Mission
	for _, m := range missions {
		if m.EffectiveStatus() != models.MissionStatusPublished || m.OpenSlots() == 0 {
			continue
		}
		if m.IsScheduled() && !m.EndAt.After(now) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.Urgent != b.Urgent {
			return a.Urgent
		}
		as, bs := a.IsScheduled(), b.IsScheduled()
		if as != bs {
			return as
		}
		if as && !a.StartAt.Equal(*b.StartAt) {
			return a.StartAt.Before(*b.StartAt)
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
	return out
}

// BuildIncompleteMessage renders missions (as returned by IncompleteMissions)
// into a broadcast message. loc formats the mission times.
func BuildIncompleteMessage(missions []models.Mission, loc *time.Location) notify.Message {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	b.WriteString("Ces missions ont encore besoin de bénévoles :\n\n")
	for i := range missions {
		m := &missions[i]
		b.WriteString("- ")
		if m.Urgent {
			b.WriteString("[URGENT] ")
		}
		b.WriteString(m.Title)
		if m.IsScheduled() {
			s := m.StartAt.In(loc)
			fmt.Fprintf(&b, " (%s %s-%s)", s.Format("02/01"), s.Format("15:04"), m.EndAt.In(loc).Format("15:04"))
		}
		n := m.OpenSlots()
		if n == 1 {
			b.WriteString(" : 1 place restante\n")
		} else {
			fmt.Fprintf(&b, " : %d places restantes\n", n)
		}
	}
	b.WriteString("\nInscrivez-vous depuis la liste des missions.")

	title := "1 mission a besoin de bénévoles"
	if len(missions) != 1 {
		title = fmt.Sprintf("%d missions ont besoin de bénévoles", len(missions))
	}
	return notify.Message{
		Title: title,
		Body:  b.String(),
		Link:  "/missions?status=published",
	}
}
