// internal/app/store/categories/categorystore.go
package categorystore

// Terminology: Category identifiers
//   - ID / id / _id: the MongoDB ObjectID of the category document (stored on users)
//   - Value / value: the stable slug stored on missions; immutable once created

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/txn"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no category has the requested _id.
	ErrNotFound = errors.New("category not found")
	// ErrDuplicateValue is returned when a category with the same value exists.
	ErrDuplicateValue = errors.New("a category with this value already exists")
	// ErrInvalidValue is returned for values that are not lowercase slugs.
	ErrInvalidValue = errors.New("category value must be a lowercase slug (a-z, 0-9, '-' or '_')")
	// ErrLabelRequired is returned when the label is blank.
	ErrLabelRequired = errors.New("category label is required")
)

var valueRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Store provides access to the categories collection.
type Store struct {
	db    *mongo.Database
	c     *mongo.Collection
	users *mongo.Collection
}

// New creates a categories store.
func New(db *mongo.Database) *Store {
	return &Store{
		db:    db,
		c:     db.Collection("categories"),
		users: db.Collection("users"),
	}
}

// ListGrouped returns categories grouped by display group. Groups appear in
// order of their first category; inside a group categories are sorted by
// order, then label. When activeOnly is set archived categories are skipped.
func (s *Store) ListGrouped(ctx context.Context, activeOnly bool) ([]models.CategoryGroup, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "group", Value: 1},
		{Key: "order", Value: 1},
		{Key: "label_ci", Value: 1},
	})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var cats []models.Category
	if err := cur.All(ctx, &cats); err != nil {
		return nil, err
	}
	return groupCategories(cats), nil
}

func groupCategories(cats []models.Category) []models.CategoryGroup {
	var groups []models.CategoryGroup
	index := make(map[string]int)
	for _, c := range cats {
		i, ok := index[c.Group]
		if !ok {
			i = len(groups)
			index[c.Group] = i
			groups = append(groups, models.CategoryGroup{Group: c.Group})
		}
		groups[i].Categories = append(groups[i].Categories, c)
	}
	return groups
}

// GetByID loads a category by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Category, error) {
	var c models.Category
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return models.Category{}, ErrNotFound
	}
	return c, err
}

// GetByValue loads a category by its value.
func (s *Store) GetByValue(ctx context.Context, value string) (models.Category, error) {
	var c models.Category
	err := s.c.FindOne(ctx, bson.M{"value": value}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return models.Category{}, ErrNotFound
	}
	return c, err
}

// ExistingIDs returns the subset of ids that name a category.
func (s *Store) ExistingIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ID)
	}
	return out, cur.Err()
}

// Create validates and inserts a new active category.
func (s *Store) Create(ctx context.Context, c models.Category) (models.Category, error) {
	c.Value = strings.TrimSpace(c.Value)
	c.Label = strings.TrimSpace(c.Label)
	if !valueRe.MatchString(c.Value) {
		return models.Category{}, ErrInvalidValue
	}
	if c.Label == "" {
		return models.Category{}, ErrLabelRequired
	}

	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.LabelCI = text.Fold(c.Label)
	c.Group = strings.TrimSpace(c.Group)
	c.Active = true
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Category{}, ErrDuplicateValue
		}
		return models.Category{}, err
	}
	return c, nil
}

// Update changes the display fields of a category. The value is never written.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, label, group string, order int, active bool) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return ErrLabelRequired
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"label":      label,
		"label_ci":   text.Fold(label),
		"group":      strings.TrimSpace(group),
		"order":      order,
		"active":     active,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Archive marks a category inactive.
func (s *Store) Archive(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"active":     false,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a category and pulls its _id from every user's
// responsible_for_categories list. Both writes run in one transaction when
// the server supports it.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, logger *zap.Logger) error {
	return txn.Run(ctx, s.db, logger, func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		_, err = s.users.UpdateMany(ctx,
			bson.M{"responsible_for_categories": id},
			bson.M{"$pull": bson.M{"responsible_for_categories": id}},
		)
		return err
	})
}
