// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleVolunteer           = "volunteer"
	RoleMissionResponsible  = "mission_responsible"
	RoleCategoryResponsible = "category_responsible"
	RoleAdmin               = "admin"
)

// User represents volunteers, responsibles and admins.
//
// NOTE:
//   - ResponsibleForCategories stores category _ids, not category values.
//     Resolve them through the category cache before comparing with Mission.Category.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role       string             `bson:"role" json:"role"`
	Status     string             `bson:"status,omitempty" json:"status,omitempty"` // active | disabled

	ResponsibleForCategories []primitive.ObjectID `bson:"responsible_for_categories,omitempty" json:"responsible_for_categories,omitempty"`

	ConsentDataProcessing bool `bson:"consent_data_processing" json:"consent_data_processing"`
	ConsentCommunications bool `bson:"consent_communications" json:"consent_communications"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CanReceiveNotifications reports whether the user agreed to be contacted.
func (u *User) CanReceiveNotifications() bool {
	return u.ConsentDataProcessing && u.ConsentCommunications && u.Status != "disabled"
}

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	switch r {
	case RoleVolunteer, RoleMissionResponsible, RoleCategoryResponsible, RoleAdmin:
		return true
	}
	return false
}
