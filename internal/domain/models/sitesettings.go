// internal/domain/models/sitesettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteSettings holds admin-editable settings. There is a single document.
type SiteSettings struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`

	// Registration kill switch
	RegistrationsBlocked bool   `bson:"registrations_blocked" json:"registrations_blocked"`
	BlockMessage         string `bson:"block_message,omitempty" json:"block_message,omitempty"`

	// Audit fields
	UpdatedAt     *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// DefaultBlockMessage is shown when registrations are blocked without a custom message.
const DefaultBlockMessage = "Les inscriptions sont temporairement fermées."

// EffectiveBlockMessage returns the admin message or the default one.
func (s *SiteSettings) EffectiveBlockMessage() string {
	if s.BlockMessage != "" {
		return s.BlockMessage
	}
	return DefaultBlockMessage
}
