// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// settingsKey is the fixed key of the single settings document.
const settingsKey = "global"

// Store provides access to the site_settings collection.
// There is one settings document for the whole festival.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("site_settings")}
}

// Get returns the site settings.
// If nothing has been saved yet, registrations are open.
func (s *Store) Get(ctx context.Context) (models.SiteSettings, error) {
	var settings models.SiteSettings
	err := s.c.FindOne(ctx, bson.M{"key": settingsKey}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return models.SiteSettings{}, nil
	}
	if err != nil {
		return models.SiteSettings{}, err
	}
	return settings, nil
}

// Save writes the registration kill switch.
// Uses upsert so it works whether settings exist or not.
func (s *Store) Save(ctx context.Context, settings models.SiteSettings) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"key":                   settingsKey,
			"registrations_blocked": settings.RegistrationsBlocked,
			"block_message":         settings.BlockMessage,
			"updated_at":            now,
			"updated_by_id":         settings.UpdatedByID,
			"updated_by_name":       settings.UpdatedByName,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"key": settingsKey}, update, options.Update().SetUpsert(true))
	return err
}
