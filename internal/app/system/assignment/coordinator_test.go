package assignment_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type harness struct {
	store    *memStore
	settings *fakeSettings
	perms    *rolePerms
	notifier *recordingNotifier
	c        *assignment.Coordinator
}

func newHarness(ms ...models.Mission) *harness {
	h := &harness{
		store:    newMemStore(ms...),
		settings: &fakeSettings{},
		perms:    &rolePerms{values: map[string]map[string]bool{}},
		notifier: &recordingNotifier{},
	}
	h.c = assignment.New(h.store, h.settings, h.perms, h.notifier, zap.NewNop(), 0)
	return h
}

func TestRegister_FillsLastSlot(t *testing.T) {
	u1 := primitive.NewObjectID()
	m := ongoing(2, u1)
	h := newHarness(m)
	u2, u3 := volunteer(), volunteer()
	ctx := context.Background()

	got, err := h.c.Register(ctx, u2, m.ID)
	if err != nil {
		t.Fatalf("Register u2: %v", err)
	}
	if len(got.Volunteers) != 2 || got.Volunteers[0] != u1 || got.Volunteers[1] != oid(u2) {
		t.Errorf("roster = %v", got.Volunteers)
	}
	if got.Status != models.MissionStatusFull {
		t.Errorf("status = %q, want full", got.Status)
	}
	if stored := h.store.get(m.ID); stored.Status != models.MissionStatusFull || stored.Version != 1 {
		t.Errorf("stored = status %q version %d", stored.Status, stored.Version)
	}

	_, err = h.c.Register(ctx, u3, m.ID)
	var capErr *assignment.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Register u3 err = %v, want CapacityError", err)
	}
	if capErr.MaxVolunteers != 2 {
		t.Errorf("CapacityError.MaxVolunteers = %d", capErr.MaxVolunteers)
	}
	if stored := h.store.get(m.ID); len(stored.Volunteers) != 2 || stored.Version != 1 {
		t.Errorf("state changed after rejection: %+v", stored)
	}
}

func TestRegister_RoundTrip(t *testing.T) {
	u1 := primitive.NewObjectID()
	m := ongoing(3, u1)
	h := newHarness(m)
	v := volunteer()
	ctx := context.Background()

	if _, err := h.c.Register(ctx, v, m.ID); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := h.c.Unregister(ctx, v, m.ID)
	if err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if len(got.Volunteers) != 1 || got.Volunteers[0] != u1 {
		t.Errorf("roster after round trip = %v, want [%v]", got.Volunteers, u1)
	}
	if got.Status != models.MissionStatusPublished {
		t.Errorf("status = %q", got.Status)
	}
}

func TestUnregister_FullBackToPublished(t *testing.T) {
	v := volunteer()
	m := ongoing(1, oid(v))
	m.Status = models.MissionStatusFull
	h := newHarness(m)

	got, err := h.c.Unregister(context.Background(), v, m.ID)
	if err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if got.Status != models.MissionStatusPublished || len(got.Volunteers) != 0 {
		t.Errorf("got status %q roster %v", got.Status, got.Volunteers)
	}
}

func TestUnregister_NotAssigned(t *testing.T) {
	m := ongoing(2)
	h := newHarness(m)

	_, err := h.c.Unregister(context.Background(), volunteer(), m.ID)
	if !errors.Is(err, assignment.ErrNotAssigned) {
		t.Fatalf("err = %v, want ErrNotAssigned", err)
	}
	if h.store.writes != 0 {
		t.Error("no write expected")
	}
}

func TestUnregister_AllowedOnAnyStatus(t *testing.T) {
	for _, status := range []string{models.MissionStatusDraft, models.MissionStatusCancelled, models.MissionStatusCompleted} {
		t.Run(status, func(t *testing.T) {
			v := volunteer()
			m := ongoing(2, oid(v))
			m.Status = status
			h := newHarness(m)

			got, err := h.c.Unregister(context.Background(), v, m.ID)
			if err != nil {
				t.Fatalf("Unregister: %v", err)
			}
			if got.Status != status {
				t.Errorf("status = %q, want %q", got.Status, status)
			}
		})
	}
}

func TestRegister_AlreadyAssigned(t *testing.T) {
	v := volunteer()
	m := ongoing(1, oid(v))
	m.Status = models.MissionStatusFull
	h := newHarness(m)

	_, err := h.c.Register(context.Background(), v, m.ID)
	if !errors.Is(err, assignment.ErrAlreadyAssigned) {
		t.Fatalf("err = %v, want ErrAlreadyAssigned", err)
	}
	if h.store.writes != 0 || h.notifier.count() != 0 {
		t.Error("no write or notification expected")
	}
}

func TestRegister_Status(t *testing.T) {
	tests := []struct {
		status string
		ok     bool
	}{
		{models.MissionStatusPublished, true},
		{models.MissionStatusDraft, false},
		{models.MissionStatusCancelled, false},
		{models.MissionStatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			m := ongoing(5)
			m.Status = tt.status
			h := newHarness(m)

			_, err := h.c.Register(context.Background(), volunteer(), m.ID)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				var ve *assignment.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
			}
		})
	}
}

func TestRegister_StaleFullStatusWithRoom(t *testing.T) {
	m := ongoing(3, primitive.NewObjectID())
	m.Status = models.MissionStatusFull // stale hint, roster has room
	h := newHarness(m)

	got, err := h.c.Register(context.Background(), volunteer(), m.ID)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got.Status != models.MissionStatusPublished {
		t.Errorf("status = %q, want published", got.Status)
	}
}

func TestRegister_Blocked(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"custom message", "Fermé pendant la réunion.", "Fermé pendant la réunion."},
		{"default message", "", models.DefaultBlockMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ongoing(5)
			h := newHarness(m)
			h.settings.s = models.SiteSettings{RegistrationsBlocked: true, BlockMessage: tt.message}

			_, err := h.c.Register(context.Background(), volunteer(), m.ID)
			var ue *assignment.UnavailableError
			if !errors.As(err, &ue) {
				t.Fatalf("err = %v, want UnavailableError", err)
			}
			if ue.Message != tt.want || ue.Error() != tt.want {
				t.Errorf("message = %q, want %q", ue.Message, tt.want)
			}
			if h.store.writes != 0 {
				t.Error("no write expected")
			}
		})
	}
}

func TestAdminAssign_BypassesKillSwitch(t *testing.T) {
	m := ongoing(5)
	h := newHarness(m)
	h.settings.s = models.SiteSettings{RegistrationsBlocked: true}
	v := primitive.NewObjectID()

	got, err := h.c.AdminAssign(context.Background(), admin(), m.ID, v)
	if err != nil {
		t.Fatalf("AdminAssign: %v", err)
	}
	if !got.HasVolunteer(v) {
		t.Error("volunteer not on roster")
	}
}

func TestAdminAssign_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("capacity", func(t *testing.T) {
		m := ongoing(1, primitive.NewObjectID())
		h := newHarness(m)
		_, err := h.c.AdminAssign(ctx, admin(), m.ID, primitive.NewObjectID())
		var ce *assignment.CapacityError
		if !errors.As(err, &ce) {
			t.Fatalf("err = %v, want CapacityError", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		v := primitive.NewObjectID()
		m := ongoing(3, v)
		h := newHarness(m)
		if _, err := h.c.AdminAssign(ctx, admin(), m.ID, v); !errors.Is(err, assignment.ErrAlreadyAssigned) {
			t.Fatalf("err = %v, want ErrAlreadyAssigned", err)
		}
	})

	t.Run("draft allowed", func(t *testing.T) {
		m := ongoing(3)
		m.Status = models.MissionStatusDraft
		h := newHarness(m)
		got, err := h.c.AdminAssign(ctx, admin(), m.ID, primitive.NewObjectID())
		if err != nil {
			t.Fatalf("AdminAssign: %v", err)
		}
		if got.Status != models.MissionStatusDraft {
			t.Errorf("status = %q, want draft", got.Status)
		}
	})

	t.Run("cancelled rejected", func(t *testing.T) {
		m := ongoing(3)
		m.Status = models.MissionStatusCancelled
		h := newHarness(m)
		_, err := h.c.AdminAssign(ctx, admin(), m.ID, primitive.NewObjectID())
		var ve *assignment.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
	})

	t.Run("missing volunteer id", func(t *testing.T) {
		m := ongoing(3)
		h := newHarness(m)
		_, err := h.c.AdminAssign(ctx, admin(), m.ID, primitive.NilObjectID)
		var ve *assignment.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
	})

	t.Run("overlap checked", func(t *testing.T) {
		v := primitive.NewObjectID()
		a := scheduled("A", 10, 12, v)
		b := scheduled("B", 11, 13)
		h := newHarness(a, b)
		_, err := h.c.AdminAssign(ctx, admin(), b.ID, v)
		var ce *assignment.ConflictError
		if !errors.As(err, &ce) || ce.MissionID != a.ID {
			t.Fatalf("err = %v, want ConflictError naming A", err)
		}
	})
}

func TestAdminAssign_Authorization(t *testing.T) {
	m := ongoing(3) // category "accueil"
	ctx := context.Background()

	responsible := &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleCategoryResponsible}
	other := &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleCategoryResponsible}

	h := newHarness(m)
	h.perms.values[responsible.ID] = map[string]bool{"accueil": true}
	h.perms.values[other.ID] = map[string]bool{"bar": true}

	if _, err := h.c.AdminAssign(ctx, responsible, m.ID, primitive.NewObjectID()); err != nil {
		t.Errorf("responsible of category: %v", err)
	}

	for name, u := range map[string]*auth.SessionUser{"other category": other, "volunteer": volunteer()} {
		_, err := h.c.AdminAssign(ctx, u, m.ID, primitive.NewObjectID())
		var ae *assignment.AuthorizationError
		if !errors.As(err, &ae) {
			t.Errorf("%s: err = %v, want AuthorizationError", name, err)
		}
		_, err = h.c.AdminUnassign(ctx, u, m.ID, primitive.NewObjectID())
		if !errors.As(err, &ae) {
			t.Errorf("%s unassign: err = %v, want AuthorizationError", name, err)
		}
	}

	h.perms.err = errors.New("categories unavailable")
	_, err := h.c.AdminAssign(ctx, responsible, m.ID, primitive.NewObjectID())
	var de *assignment.DependencyError
	if !errors.As(err, &de) {
		t.Errorf("resolver failure: err = %v, want DependencyError", err)
	}
}

func TestAdminUnassign(t *testing.T) {
	v := primitive.NewObjectID()
	m := ongoing(1, v)
	m.Status = models.MissionStatusFull
	h := newHarness(m)
	ctx := context.Background()

	got, err := h.c.AdminUnassign(ctx, admin(), m.ID, v)
	if err != nil {
		t.Fatalf("AdminUnassign: %v", err)
	}
	if got.HasVolunteer(v) || got.Status != models.MissionStatusPublished {
		t.Errorf("got roster %v status %q", got.Volunteers, got.Status)
	}
	if _, err := h.c.AdminUnassign(ctx, admin(), m.ID, v); !errors.Is(err, assignment.ErrNotAssigned) {
		t.Errorf("second unassign err = %v, want ErrNotAssigned", err)
	}
	if h.notifier.count() != 1 || h.notifier.sent[0].userIDs[0] != v.Hex() {
		t.Errorf("notifications = %+v", h.notifier.sent)
	}
}

func TestRegister_Overlap(t *testing.T) {
	v := volunteer()
	a := scheduled("A", 10, 12, oid(v))
	b := scheduled("B", 11, 13)
	c := scheduled("C", 12, 14)
	h := newHarness(a, b, c)
	ctx := context.Background()

	_, err := h.c.Register(ctx, v, b.ID)
	var ce *assignment.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("register B err = %v, want ConflictError", err)
	}
	if ce.MissionID != a.ID || ce.Title != "A" {
		t.Errorf("conflict names %v %q, want A", ce.MissionID, ce.Title)
	}

	if _, err := h.c.Register(ctx, v, c.ID); err != nil {
		t.Fatalf("register C (touching A) failed: %v", err)
	}
}

func TestRegister_OverlapIgnoresOngoingAndCancelled(t *testing.T) {
	v := volunteer()
	cancelled := scheduled("Annulée", 10, 12, oid(v))
	cancelled.Status = models.MissionStatusCancelled
	running := ongoing(5, oid(v))
	b := scheduled("B", 11, 13)
	h := newHarness(cancelled, running, b)

	if _, err := h.c.Register(context.Background(), v, b.ID); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// ongoing missions are exempt even when the volunteer has scheduled ones
	other := ongoing(5)
	h2 := newHarness(scheduled("A", 10, 12, oid(v)), other)
	if _, err := h2.c.Register(context.Background(), v, other.ID); err != nil {
		t.Fatalf("Register ongoing: %v", err)
	}
}

func TestRegister_InputErrors(t *testing.T) {
	m := ongoing(2)
	h := newHarness(m)
	ctx := context.Background()

	var ae *assignment.AuthorizationError
	if _, err := h.c.Register(ctx, nil, m.ID); !errors.As(err, &ae) {
		t.Errorf("nil actor err = %v, want AuthorizationError", err)
	}
	var ve *assignment.ValidationError
	if _, err := h.c.Register(ctx, &auth.SessionUser{ID: "nope"}, m.ID); !errors.As(err, &ve) {
		t.Errorf("bad id err = %v, want ValidationError", err)
	}
	if _, err := h.c.Register(ctx, volunteer(), primitive.NewObjectID()); !errors.Is(err, assignment.ErrMissionNotFound) {
		t.Errorf("missing mission err = %v, want ErrMissionNotFound", err)
	}
}

func TestRegister_DependencyErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("mongo down")

	cases := map[string]func(h *harness){
		"settings": func(h *harness) { h.settings.err = boom },
		"get":      func(h *harness) { h.store.getErr = boom },
		"list":     func(h *harness) { h.store.listErr = boom },
		"write":    func(h *harness) { h.store.writeErr = boom },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			m := scheduled("A", 10, 12)
			h := newHarness(m)
			setup(h)

			_, err := h.c.Register(ctx, volunteer(), m.ID)
			var de *assignment.DependencyError
			if !errors.As(err, &de) {
				t.Fatalf("err = %v, want DependencyError", err)
			}
			if !errors.Is(err, boom) {
				t.Error("expected cause to be wrapped")
			}
			if h.notifier.count() != 0 {
				t.Error("no notification expected on failure")
			}
		})
	}
}

func TestRegister_RetriesOnVersionConflict(t *testing.T) {
	m := ongoing(2)
	h := newHarness(m)
	intruder := primitive.NewObjectID()

	raced := false
	h.store.beforeWrite = func() {
		if !raced {
			raced = true
			h.store.mutate(m.ID, func(m *models.Mission) { m.Volunteers = append(m.Volunteers, intruder) })
		}
	}

	v := volunteer()
	got, err := h.c.Register(context.Background(), v, m.ID)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(got.Volunteers) != 2 || got.Volunteers[0] != intruder || got.Volunteers[1] != oid(v) {
		t.Errorf("roster = %v", got.Volunteers)
	}
	if got.Status != models.MissionStatusFull {
		t.Errorf("status = %q, want full", got.Status)
	}
}

func TestRegister_ConflictRecheckRespectsCapacity(t *testing.T) {
	m := ongoing(1)
	h := newHarness(m)

	h.store.beforeWrite = func() {
		h.store.beforeWrite = nil
		h.store.mutate(m.ID, func(m *models.Mission) { m.Volunteers = append(m.Volunteers, primitive.NewObjectID()) })
	}

	_, err := h.c.Register(context.Background(), volunteer(), m.ID)
	var ce *assignment.CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CapacityError after losing the race", err)
	}
	if got := h.store.get(m.ID); len(got.Volunteers) != 1 {
		t.Errorf("roster = %v", got.Volunteers)
	}
}

func TestRegister_GivesUpAfterMaxRetries(t *testing.T) {
	m := ongoing(100)
	store := newMemStore(m)
	store.beforeWrite = func() {
		store.mutate(m.ID, func(*models.Mission) {})
	}
	c := assignment.New(store, &fakeSettings{}, &rolePerms{}, nil, zap.NewNop(), 3)

	_, err := c.Register(context.Background(), volunteer(), m.ID)
	if !errors.Is(err, assignment.ErrTooManyConflicts) {
		t.Fatalf("err = %v, want ErrTooManyConflicts", err)
	}
	var de *assignment.DependencyError
	if !errors.As(err, &de) {
		t.Error("expected DependencyError")
	}
}

func TestRegister_ConcurrentNeverExceedsCapacity(t *testing.T) {
	const capacity, callers = 3, 25
	m := ongoing(capacity)
	h := newHarness(m)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, full int
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.c.Register(context.Background(), volunteer(), m.ID)
			var ce *assignment.CapacityError
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.As(err, &ce):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != capacity || full != callers-capacity {
		t.Errorf("ok=%d full=%d, want %d/%d", ok, full, capacity, callers-capacity)
	}
	got := h.store.get(m.ID)
	if len(got.Volunteers) != capacity {
		t.Errorf("roster size = %d, want %d", len(got.Volunteers), capacity)
	}
	if got.Status != models.MissionStatusFull {
		t.Errorf("status = %q, want full", got.Status)
	}
}

func TestNotifications(t *testing.T) {
	m := scheduled("Bar du soir", 18, 22)
	h := newHarness(m)
	v := volunteer()

	if _, err := h.c.Register(context.Background(), v, m.ID); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if h.notifier.count() != 1 {
		t.Fatalf("notifications = %d, want 1", h.notifier.count())
	}
	n := h.notifier.sent[0]
	if len(n.userIDs) != 1 || n.userIDs[0] != v.ID {
		t.Errorf("recipients = %v", n.userIDs)
	}
	if n.msg.Link != "/missions/"+m.ID.Hex() {
		t.Errorf("link = %q", n.msg.Link)
	}
}

func TestNotificationFailureIsSwallowed(t *testing.T) {
	m := ongoing(2)
	store := newMemStore(m)
	notifier := &recordingNotifier{err: errors.New("redis down")}
	core, logs := observer.New(zap.WarnLevel)
	c := assignment.New(store, &fakeSettings{}, &rolePerms{}, notifier, zap.New(core), 0)

	got, err := c.Register(context.Background(), volunteer(), m.ID)
	if err != nil {
		t.Fatalf("Register reported failure: %v", err)
	}
	if len(got.Volunteers) != 1 {
		t.Error("roster change should be committed")
	}
	if logs.FilterMessage("notification dispatch failed").Len() != 1 {
		t.Error("expected the dispatch failure to be logged")
	}
}
