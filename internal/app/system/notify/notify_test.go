package notify_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/mailer"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"github.com/albertduplantin/benevoles3-sub001/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users     []models.User
	err       error
	lastRoles []string
}

func (f *fakeUsers) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.User
	for _, u := range f.users {
		if want[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) ListByRoles(_ context.Context, roles ...string) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastRoles = roles
	set := map[string]bool{}
	for _, r := range roles {
		set[r] = true
	}
	var out []models.User
	for _, u := range f.users {
		if set[u.Role] {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	fail map[string]bool
}

func (f *fakeSender) Send(_ context.Context, e mailer.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[e.To] {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, e)
	return nil
}

func user(role, email string, consent bool) models.User {
	return models.User{
		ID:                    primitive.NewObjectID(),
		FullName:              "U " + email,
		Email:                 email,
		Role:                  role,
		Status:                "active",
		ConsentDataProcessing: true,
		ConsentCommunications: consent,
	}
}

func TestParseTarget(t *testing.T) {
	for _, s := range []string{"volunteers", "responsibles", "all"} {
		if _, err := notify.ParseTarget(s); err != nil {
			t.Errorf("ParseTarget(%q) error: %v", s, err)
		}
	}
	if _, err := notify.ParseTarget("admins"); err == nil {
		t.Error("expected error for unknown target")
	}
}

func TestProcessor_NotifyUsers_FiltersConsent(t *testing.T) {
	yes := user(models.RoleVolunteer, "yes@example.com", true)
	no := user(models.RoleVolunteer, "no@example.com", false)
	other := user(models.RoleVolunteer, "other@example.com", true)
	users := &fakeUsers{users: []models.User{yes, no, other}}
	sender := &fakeSender{}
	p := notify.NewProcessor(users, sender, "Festival", "https://benevoles.example/", zap.NewNop())

	job := notify.NewJob(notify.JobTypeNotifyUsers, notify.Message{Title: "Affecté", Body: "Bienvenue", Link: "/missions/1"})
	job.UserIDs = []string{yes.ID.Hex(), no.ID.Hex(), "not-an-id"}

	if err := p.Process(context.Background(), &job); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.To != "yes@example.com" {
		t.Errorf("To = %q", got.To)
	}
	if !strings.Contains(got.Subject, "Affecté") {
		t.Errorf("Subject = %q", got.Subject)
	}
	if !strings.Contains(got.TextBody, "https://benevoles.example/missions/1") {
		t.Errorf("expected absolute link in body, got %q", got.TextBody)
	}
}

func TestProcessor_Broadcast_Roles(t *testing.T) {
	tests := []struct {
		target notify.Target
		want   []string
	}{
		{notify.TargetVolunteers, []string{"v@example.com"}},
		{notify.TargetResponsibles, []string{"c@example.com", "m@example.com"}},
		{notify.TargetAll, []string{"a@example.com", "c@example.com", "m@example.com", "v@example.com"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			users := &fakeUsers{users: []models.User{
				user(models.RoleAdmin, "a@example.com", true),
				user(models.RoleCategoryResponsible, "c@example.com", true),
				user(models.RoleMissionResponsible, "m@example.com", true),
				user(models.RoleVolunteer, "v@example.com", true),
			}}
			sender := &fakeSender{}
			p := notify.NewProcessor(users, sender, "Festival", "", zap.NewNop())

			job := notify.NewJob(notify.JobTypeBroadcast, notify.Message{Title: "Missions", Body: "x"})
			job.Target = tt.target
			if err := p.Process(context.Background(), &job); err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			got := map[string]bool{}
			for _, e := range sender.sent {
				got[e.To] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("sent to %v, want %v", got, tt.want)
			}
			for _, w := range tt.want {
				if !got[w] {
					t.Errorf("missing recipient %s", w)
				}
			}
		})
	}
}

func TestProcessor_Errors(t *testing.T) {
	v := user(models.RoleVolunteer, "v@example.com", true)

	t.Run("lookup failure", func(t *testing.T) {
		p := notify.NewProcessor(&fakeUsers{err: errors.New("db down")}, &fakeSender{}, "F", "", zap.NewNop())
		job := notify.NewJob(notify.JobTypeBroadcast, notify.Message{Title: "x"})
		job.Target = notify.TargetAll
		if err := p.Process(context.Background(), &job); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("all sends fail", func(t *testing.T) {
		sender := &fakeSender{fail: map[string]bool{"v@example.com": true}}
		p := notify.NewProcessor(&fakeUsers{users: []models.User{v}}, sender, "F", "", zap.NewNop())
		job := notify.NewJob(notify.JobTypeNotifyUsers, notify.Message{Title: "x"})
		job.UserIDs = []string{v.ID.Hex()}
		if err := p.Process(context.Background(), &job); err == nil {
			t.Error("expected error when every send fails")
		}
	})

	t.Run("partial failure succeeds", func(t *testing.T) {
		w := user(models.RoleVolunteer, "w@example.com", true)
		sender := &fakeSender{fail: map[string]bool{"v@example.com": true}}
		p := notify.NewProcessor(&fakeUsers{users: []models.User{v, w}}, sender, "F", "", zap.NewNop())
		job := notify.NewJob(notify.JobTypeNotifyUsers, notify.Message{Title: "x"})
		job.UserIDs = []string{v.ID.Hex(), w.ID.Hex()}
		if err := p.Process(context.Background(), &job); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		p := notify.NewProcessor(&fakeUsers{}, &fakeSender{}, "F", "", zap.NewNop())
		job := notify.NewJob("bogus", notify.Message{})
		if err := p.Process(context.Background(), &job); err == nil {
			t.Error("expected error for unknown job type")
		}
	})
}

func TestNop(t *testing.T) {
	var d notify.Dispatcher = notify.Nop{}
	if err := d.NotifyUsers(context.Background(), []string{"x"}, notify.Message{}); err != nil {
		t.Error(err)
	}
	if err := d.Broadcast(context.Background(), notify.TargetAll, notify.Message{}); err != nil {
		t.Error(err)
	}
}

func TestQueue_RoundTripAndDeadLetter(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	q := notify.NewQueue(client, zap.NewNop())
	d := notify.NewQueueDispatcher(q)

	if err := d.NotifyUsers(ctx, nil, notify.Message{Title: "ignored"}); err != nil {
		t.Fatalf("empty NotifyUsers: %v", err)
	}
	if err := d.NotifyUsers(ctx, []string{"u1", "u2"}, notify.Message{Title: "Salut"}); err != nil {
		t.Fatalf("NotifyUsers: %v", err)
	}
	if err := d.Broadcast(ctx, "nobody", notify.Message{}); err == nil {
		t.Error("expected error for invalid target")
	}
	if n, _ := q.Pending(ctx); n != 1 {
		t.Fatalf("Pending = %d, want 1", n)
	}

	job, err := q.Dequeue(ctx, time.Second)
	if err != nil || job == nil {
		t.Fatalf("Dequeue = %v, %v", job, err)
	}
	if job.Type != notify.JobTypeNotifyUsers || len(job.UserIDs) != 2 || job.Message.Title != "Salut" {
		t.Errorf("unexpected job: %+v", job)
	}
	if job.ID == "" {
		t.Error("expected job id")
	}

	for i := 1; i < notify.MaxRetries; i++ {
		if err := q.Retry(ctx, job); err != nil {
			t.Fatalf("Retry: %v", err)
		}
		if job, err = q.Dequeue(ctx, time.Second); err != nil || job == nil {
			t.Fatalf("Dequeue after retry = %v, %v", job, err)
		}
	}
	if err := q.Retry(ctx, job); err != nil {
		t.Fatalf("final Retry: %v", err)
	}
	if n, _ := q.DeadLetters(ctx); n != 1 {
		t.Errorf("DeadLetters = %d, want 1", n)
	}
	if n, _ := q.Pending(ctx); n != 0 {
		t.Errorf("Pending = %d, want 0", n)
	}
}

func TestQueue_DequeueTimeout(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	job, err := notify.NewQueue(client, zap.NewNop()).Dequeue(ctx, 100*time.Millisecond)
	if err != nil || job != nil {
		t.Errorf("Dequeue on empty queue = %v, %v", job, err)
	}
}
