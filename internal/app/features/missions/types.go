// internal/app/features/missions/types.go
package missions

import (
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/htmlsanitize"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// missionView is the JSON form of a mission. Status is always derived
// from the roster, whatever is stored.
type missionView struct {
	models.Mission
	DescriptionHTML string `json:"description_html,omitempty"`
	OpenSlots       int    `json:"open_slots"`
	CanEdit         bool   `json:"can_edit"`
	Assigned        bool   `json:"assigned"` // the current user is on the roster
}

func toView(m models.Mission) missionView {
	m.Status = m.EffectiveStatus()
	if m.Volunteers == nil {
		m.Volunteers = []primitive.ObjectID{}
	}
	return missionView{
		Mission:         m,
		DescriptionHTML: htmlsanitize.PrepareForDisplay(m.Description),
		OpenSlots:       m.OpenSlots(),
	}
}

type listResponse struct {
	Missions []missionView `json:"missions"`
	Count    int           `json:"count"`
}

type contactView struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}
