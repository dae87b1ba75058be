// internal/domain/models/category.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category groups missions. Value is the stable slug stored on Mission.Category
// and never changes after creation; Label, Group, Order and Active are editable.
type Category struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Value   string             `bson:"value" json:"value"`
	Label   string             `bson:"label" json:"label"`
	LabelCI string             `bson:"label_ci" json:"-"`
	Group   string             `bson:"group" json:"group"`
	Order   int                `bson:"order" json:"order"`
	Active  bool               `bson:"active" json:"active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CategoryGroup is one display group with its categories in display order.
type CategoryGroup struct {
	Group      string     `json:"group"`
	Categories []Category `json:"categories"`
}
