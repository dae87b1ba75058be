// internal/app/store/missions/missionstore.go
package missionstore

// Terminology: Mission roster
//   - Volunteers: the ordered list of user _ids currently assigned to the mission
//   - Version: a counter bumped on every write; writes are conditional on it

import (
	"context"
	"errors"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no mission has the requested _id.
	ErrNotFound = errors.New("mission not found")
	// ErrVersionConflict is returned when a conditional write lost a race:
	// the mission exists but its version moved since it was read.
	ErrVersionConflict = errors.New("mission was modified concurrently")
)

// Store provides access to the missions collection.
type Store struct {
	c *mongo.Collection
}

// New creates a missions store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("missions")}
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Category   string
	Status     string // compared against EffectiveStatus
	UrgentOnly bool
}

// GetByID loads a mission by ObjectID. Returns ErrNotFound if missing.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Mission, error) {
	var m models.Mission
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Mission{}, ErrNotFound
	}
	if err != nil {
		return models.Mission{}, err
	}
	return m, nil
}

// List returns missions matching f, ordered by start time then title.
// Ongoing missions (no start time) sort first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Mission, error) {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.UrgentOnly {
		q["urgent"] = true
	}
	switch f.Status {
	case "":
	case models.MissionStatusPublished, models.MissionStatusFull:
		// "full" is derived from the roster; narrow here, finish below.
		q["status"] = bson.M{"$in": []string{models.MissionStatusPublished, models.MissionStatusFull}}
	default:
		q["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}, {Key: "title_ci", Value: 1}})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Mission
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if f.Status == models.MissionStatusPublished || f.Status == models.MissionStatusFull {
		kept := out[:0]
		for _, m := range out {
			if m.EffectiveStatus() == f.Status {
				kept = append(kept, m)
			}
		}
		out = kept
	}
	return out, nil
}

// ListByVolunteer returns every mission whose roster contains userID.
func (s *Store) ListByVolunteer(ctx context.Context, userID primitive.ObjectID) ([]models.Mission, error) {
	cur, err := s.c.Find(ctx, bson.M{"volunteers": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Mission
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByCategory returns how many missions use the given category value.
func (s *Store) CountByCategory(ctx context.Context, value string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"category": value})
}

// Create inserts a new mission with an empty roster and version 0.
func (s *Store) Create(ctx context.Context, m models.Mission) (models.Mission, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.TitleCI = text.Fold(m.Title)
	if m.Volunteers == nil {
		m.Volunteers = []primitive.ObjectID{}
	}
	m.Version = 0
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Status = m.EffectiveStatus()

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Mission{}, err
	}
	return m, nil
}

// Update writes the editable fields of m (everything except the roster),
// conditional on m.Version. The stored status is recomputed from the roster.
func (s *Store) Update(ctx context.Context, m models.Mission) error {
	m.Status = m.EffectiveStatus()
	set := bson.M{
		"title":          m.Title,
		"title_ci":       text.Fold(m.Title),
		"description":    m.Description,
		"category":       m.Category,
		"type":           m.Type,
		"start_at":       m.StartAt,
		"end_at":         m.EndAt,
		"location":       m.Location,
		"max_volunteers": m.MaxVolunteers,
		"status":         m.Status,
		"urgent":         m.Urgent,
		"responsibles":   m.Responsibles,
		"updated_at":     time.Now().UTC(),
	}
	return s.conditionalUpdate(ctx, m.ID, m.Version, set)
}

// UpdateRoster replaces the roster and stored status of mission id, but only
// if its version still equals expectedVersion. On success the version is
// incremented. Returns ErrVersionConflict when another writer got there first.
func (s *Store) UpdateRoster(ctx context.Context, id primitive.ObjectID, expectedVersion int64, volunteers []primitive.ObjectID, status string) error {
	if volunteers == nil {
		volunteers = []primitive.ObjectID{}
	}
	set := bson.M{
		"volunteers": volunteers,
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	return s.conditionalUpdate(ctx, id, expectedVersion, set)
}

func (s *Store) conditionalUpdate(ctx context.Context, id primitive.ObjectID, version int64, set bson.M) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "version": version},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// Delete removes mission id, but only if its version still equals
// expectedVersion, so a roster change made after the caller loaded the
// mission is never deleted unseen. Returns ErrVersionConflict when the
// mission changed and ErrNotFound when it is gone.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, expectedVersion int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "version": expectedVersion})
	if err != nil {
		return err
	}
	if res.DeletedCount == 1 {
		return nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}
