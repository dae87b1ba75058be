package assignment_test

import (
	"context"
	"errors"
	"sync"
	"time"

	missionstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/missions"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore keeps missions in memory with the same conditional-write
// semantics as the Mongo store.
type memStore struct {
	mu       sync.Mutex
	missions map[primitive.ObjectID]models.Mission
	writes   int
	getErr   error
	listErr  error
	writeErr error

	// beforeWrite runs (unlocked) before each UpdateRoster, to inject races.
	beforeWrite func()
}

func newMemStore(ms ...models.Mission) *memStore {
	s := &memStore{missions: map[primitive.ObjectID]models.Mission{}}
	for _, m := range ms {
		s.missions[m.ID] = m
	}
	return s
}

func (s *memStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return models.Mission{}, s.getErr
	}
	m, ok := s.missions[id]
	if !ok {
		return models.Mission{}, missionstore.ErrNotFound
	}
	m.Volunteers = append([]primitive.ObjectID(nil), m.Volunteers...)
	return m, nil
}

func (s *memStore) ListByVolunteer(_ context.Context, uid primitive.ObjectID) ([]models.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Mission
	for _, m := range s.missions {
		if m.HasVolunteer(uid) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) UpdateRoster(_ context.Context, id primitive.ObjectID, version int64, volunteers []primitive.ObjectID, status string) error {
	if s.beforeWrite != nil {
		s.beforeWrite()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	m, ok := s.missions[id]
	if !ok {
		return missionstore.ErrNotFound
	}
	if m.Version != version {
		return missionstore.ErrVersionConflict
	}
	m.Volunteers = append([]primitive.ObjectID(nil), volunteers...)
	m.Status = status
	m.Version++
	s.missions[id] = m
	s.writes++
	return nil
}

func (s *memStore) get(id primitive.ObjectID) models.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.missions[id]
}

// mutate changes a stored mission and bumps its version, like a concurrent writer.
func (s *memStore) mutate(id primitive.ObjectID, fn func(*models.Mission)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.missions[id]
	fn(&m)
	m.Version++
	s.missions[id] = m
}

type fakeSettings struct {
	s   models.SiteSettings
	err error
}

func (f *fakeSettings) Get(context.Context) (models.SiteSettings, error) { return f.s, f.err }

// rolePerms allows admins everything and category responsibles their listed values.
type rolePerms struct {
	values map[string]map[string]bool // user id -> category values
	err    error
}

func (p *rolePerms) CanEdit(_ context.Context, u *auth.SessionUser, cat string) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	if u.Role == models.RoleAdmin {
		return true, nil
	}
	return u.Role == models.RoleCategoryResponsible && p.values[u.ID][cat], nil
}

type sent struct {
	userIDs []string
	msg     notify.Message
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (n *recordingNotifier) NotifyUsers(_ context.Context, ids []string, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{userIDs: ids, msg: msg})
	return n.err
}

func (n *recordingNotifier) Broadcast(context.Context, notify.Target, notify.Message) error {
	return errors.New("not used")
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func volunteer() *auth.SessionUser {
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Bénévole", Role: models.RoleVolunteer}
}

func admin() *auth.SessionUser {
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Admin", Role: models.RoleAdmin}
}

func oid(u *auth.SessionUser) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		panic(err)
	}
	return id
}

func at(hour int) *time.Time {
	t := time.Date(2026, 7, 10, hour, 0, 0, 0, time.UTC)
	return &t
}

func ongoing(max int, roster ...primitive.ObjectID) models.Mission {
	return models.Mission{
		ID:            primitive.NewObjectID(),
		Title:         "Accueil",
		Category:      "accueil",
		Type:          models.MissionTypeOngoing,
		MaxVolunteers: max,
		Status:        models.MissionStatusPublished,
		Volunteers:    roster,
	}
}

func scheduled(title string, start, end int, roster ...primitive.ObjectID) models.Mission {
	return models.Mission{
		ID:            primitive.NewObjectID(),
		Title:         title,
		Category:      "bar",
		Type:          models.MissionTypeScheduled,
		StartAt:       at(start),
		EndAt:         at(end),
		MaxVolunteers: 10,
		Status:        models.MissionStatusPublished,
		Volunteers:    roster,
	}
}
