package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"github.com/albertduplantin/benevoles3-sub001/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Volunteer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "  Jeanne Martin ",
		Email:    "Jeanne@Example.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Jeanne Martin" {
		t.Errorf("FullName: got %q", created.FullName)
	}
	if created.Email != "jeanne@example.com" {
		t.Errorf("Email: got %q", created.Email)
	}
	if created.Role != models.RoleVolunteer {
		t.Errorf("Role: got %q, want volunteer default", created.Role)
	}
	if created.FullNameCI == "" {
		t.Error("expected FullNameCI to be set")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{FullName: "X", Email: "x@example.com", Role: "superhero"})
	if !errors.Is(err, userstore.ErrBadRole) {
		t.Fatalf("expected ErrBadRole, got %v", err)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "A", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "B", Email: "DUP@example.com"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetRoleAndCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateVolunteer(ctx, "Paul", "paul@example.com")
	catID := primitive.NewObjectID()

	if err := store.SetRole(ctx, u.ID, "Category_Responsible"); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if err := store.SetResponsibleCategories(ctx, u.ID, []primitive.ObjectID{catID}); err != nil {
		t.Fatalf("SetResponsibleCategories failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Role != models.RoleCategoryResponsible {
		t.Errorf("Role: got %q", got.Role)
	}
	if len(got.ResponsibleForCategories) != 1 || got.ResponsibleForCategories[0] != catID {
		t.Errorf("ResponsibleForCategories: got %v", got.ResponsibleForCategories)
	}

	if err := store.SetRole(ctx, u.ID, "nope"); !errors.Is(err, userstore.ErrBadRole) {
		t.Errorf("expected ErrBadRole, got %v", err)
	}
	if err := store.SetRole(ctx, primitive.NewObjectID(), "admin"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListByRoles_SkipsDisabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mustCreate := func(u models.User) {
		if _, err := store.Create(ctx, u); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	mustCreate(models.User{FullName: "Vol A", Email: "a@example.com", Role: models.RoleVolunteer})
	mustCreate(models.User{FullName: "Vol B", Email: "b@example.com", Role: models.RoleVolunteer, Status: "disabled"})
	mustCreate(models.User{FullName: "Admin", Email: "admin@example.com", Role: models.RoleAdmin})

	vols, err := store.ListByRoles(ctx, models.RoleVolunteer)
	if err != nil {
		t.Fatalf("ListByRoles failed: %v", err)
	}
	if len(vols) != 1 || vols[0].FullName != "Vol A" {
		t.Errorf("expected only Vol A, got %+v", vols)
	}

	all, err := store.ListByRoles(ctx)
	if err != nil {
		t.Fatalf("ListByRoles failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 active users, got %d", len(all))
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	catID := primitive.NewObjectID()
	u := fixtures.CreateCategoryResponsible(ctx, "Resp", "resp@example.com", catID)

	su := userstore.NewFetcher(db).FetchUser(ctx, u.ID.Hex())
	if su == nil {
		t.Fatal("expected session user")
	}
	if su.Role != models.RoleCategoryResponsible {
		t.Errorf("Role: got %q", su.Role)
	}
	if len(su.ResponsibleForCategories) != 1 || su.ResponsibleForCategories[0] != catID.Hex() {
		t.Errorf("ResponsibleForCategories: got %v", su.ResponsibleForCategories)
	}

	if userstore.NewFetcher(db).FetchUser(ctx, "bogus") != nil {
		t.Error("expected nil for malformed id")
	}
}
