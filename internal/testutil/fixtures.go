package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user with both consents granted.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:                    primitive.NewObjectID(),
		FullName:              fullName,
		FullNameCI:            text.Fold(fullName),
		Email:                 email,
		Role:                  role,
		Status:                "active",
		ConsentDataProcessing: true,
		ConsentCommunications: true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateVolunteer creates a volunteer.
func (f *Fixtures) CreateVolunteer(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleVolunteer)
}

// CreateAdmin creates an admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin)
}

// CreateCategoryResponsible creates a category responsible for the given category _ids.
func (f *Fixtures) CreateCategoryResponsible(ctx context.Context, fullName, email string, categoryIDs ...primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:                       primitive.NewObjectID(),
		FullName:                 fullName,
		FullNameCI:               text.Fold(fullName),
		Email:                    email,
		Role:                     models.RoleCategoryResponsible,
		Status:                   "active",
		ResponsibleForCategories: categoryIDs,
		ConsentDataProcessing:    true,
		ConsentCommunications:    true,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test category responsible: %v", err)
	}
	return u
}

// CreateCategory creates an active category.
func (f *Fixtures) CreateCategory(ctx context.Context, value, label, group string, order int) models.Category {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Category{
		ID:        primitive.NewObjectID(),
		Value:     value,
		Label:     label,
		LabelCI:   text.Fold(label),
		Group:     group,
		Order:     order,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("categories").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return c
}

// CreateOngoingMission creates a published mission without fixed dates.
func (f *Fixtures) CreateOngoingMission(ctx context.Context, title, category string, maxVolunteers int) models.Mission {
	f.t.Helper()
	return f.insertMission(ctx, models.Mission{
		Title:         title,
		Category:      category,
		Type:          models.MissionTypeOngoing,
		MaxVolunteers: maxVolunteers,
	})
}

// CreateScheduledMission creates a published mission over [start, end).
func (f *Fixtures) CreateScheduledMission(ctx context.Context, title, category string, maxVolunteers int, start, end time.Time) models.Mission {
	f.t.Helper()
	return f.insertMission(ctx, models.Mission{
		Title:         title,
		Category:      category,
		Type:          models.MissionTypeScheduled,
		StartAt:       &start,
		EndAt:         &end,
		MaxVolunteers: maxVolunteers,
	})
}

func (f *Fixtures) insertMission(ctx context.Context, m models.Mission) models.Mission {
	f.t.Helper()

	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.TitleCI = text.Fold(m.Title)
	m.Status = models.MissionStatusPublished
	m.Volunteers = []primitive.ObjectID{}
	m.Responsibles = []primitive.ObjectID{}
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := f.db.Collection("missions").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test mission: %v", err)
	}
	return m
}
