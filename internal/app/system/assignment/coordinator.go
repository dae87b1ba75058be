// Package assignment maintains mission rosters.
//
// Every roster change is a read-modify-write guarded by the mission's version:
// the coordinator reads the mission, checks the rules against that snapshot,
// then writes the new roster only if the version has not moved. A lost race is
// retried from a fresh read, so MaxVolunteers holds under concurrent requests.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	missionstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/missions"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/auth"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultMaxRetries bounds the compare-and-swap attempts of one operation.
const DefaultMaxRetries = 5

// MissionStore is the persistence the coordinator needs.
// UpdateRoster must fail with missionstore.ErrVersionConflict when the
// stored version differs from expectedVersion.
type MissionStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Mission, error)
	ListByVolunteer(ctx context.Context, userID primitive.ObjectID) ([]models.Mission, error)
	UpdateRoster(ctx context.Context, id primitive.ObjectID, expectedVersion int64, volunteers []primitive.ObjectID, status string) error
}

// SettingsSource exposes the registration kill switch.
type SettingsSource interface {
	Get(ctx context.Context) (models.SiteSettings, error)
}

// Permissions decides whether an actor may manage missions of a category.
type Permissions interface {
	CanEdit(ctx context.Context, u *auth.SessionUser, categoryValue string) (bool, error)
}

// Coordinator applies roster changes.
type Coordinator struct {
	missions   MissionStore
	settings   SettingsSource
	perms      Permissions
	notifier   notify.Dispatcher
	logger     *zap.Logger
	maxRetries int
	loc        *time.Location
}

// New creates a Coordinator. A nil notifier discards notifications and
// maxRetries <= 0 uses DefaultMaxRetries.
func New(missions MissionStore, settings SettingsSource, perms Permissions, notifier notify.Dispatcher, logger *zap.Logger, maxRetries int) *Coordinator {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Coordinator{
		missions:   missions,
		settings:   settings,
		perms:      perms,
		notifier:   notifier,
		logger:     logger,
		maxRetries: maxRetries,
		loc:        defaultLocation(),
	}
}

// SetLocation sets the time zone used to format mission times in notifications.
func (c *Coordinator) SetLocation(loc *time.Location) {
	if loc != nil {
		c.loc = loc
	}
}

// Register adds the actor to the roster of missionID.
//
// Rules, checked in order:
//   - registrations must not be blocked (UnavailableError with the admin message)
//   - the mission must be published (ValidationError otherwise)
//   - the actor must not already be on the roster (ErrAlreadyAssigned, no write)
//   - the roster must have room (CapacityError)
//   - for scheduled missions, no other scheduled mission of the actor may overlap (ConflictError)
//
// The mission becomes full when the roster reaches capacity.
func (c *Coordinator) Register(ctx context.Context, actor *auth.SessionUser, missionID primitive.ObjectID) (models.Mission, error) {
	vid, err := actorID(actor)
	if err != nil {
		return models.Mission{}, err
	}

	settings, err := c.settings.Get(ctx)
	if err != nil {
		return models.Mission{}, depErr("load settings", err)
	}
	if settings.RegistrationsBlocked {
		return models.Mission{}, &UnavailableError{Message: settings.EffectiveBlockMessage()}
	}

	m, err := c.add(ctx, missionID, vid, func(m *models.Mission) error {
		if m.EffectiveStatus() != models.MissionStatusPublished && m.EffectiveStatus() != models.MissionStatusFull {
			return &ValidationError{Msg: "mission is not open for registration"}
		}
		return nil
	})
	if err != nil {
		return m, err
	}

	c.notify(ctx, []string{vid.Hex()}, notify.Message{
		Title: "Inscription confirmée : " + m.Title,
		Body:  "Vous êtes inscrit(e) à la mission « " + m.Title + " »" + when(&m, c.loc) + ".",
		Link:  missionLink(m.ID),
	})
	return m, nil
}

// Unregister removes the actor from the roster of missionID. A volunteer may
// always remove themself. Returns ErrNotAssigned without writing when the
// actor is not on the roster.
func (c *Coordinator) Unregister(ctx context.Context, actor *auth.SessionUser, missionID primitive.ObjectID) (models.Mission, error) {
	vid, err := actorID(actor)
	if err != nil {
		return models.Mission{}, err
	}

	m, err := c.remove(ctx, missionID, vid, nil)
	if err != nil {
		return m, err
	}

	c.notify(ctx, []string{vid.Hex()}, notify.Message{
		Title: "Désinscription : " + m.Title,
		Body:  "Vous n'êtes plus inscrit(e) à la mission « " + m.Title + " ».",
		Link:  missionLink(m.ID),
	})
	return m, nil
}

// AdminAssign adds volunteerID to the roster on behalf of actor, who must be
// allowed to edit missions of the mission's category. It bypasses the
// registration kill switch and accepts draft missions, but keeps the
// capacity, duplicate and overlap rules.
func (c *Coordinator) AdminAssign(ctx context.Context, actor *auth.SessionUser, missionID, volunteerID primitive.ObjectID) (models.Mission, error) {
	if _, err := actorID(actor); err != nil {
		return models.Mission{}, err
	}
	if volunteerID.IsZero() {
		return models.Mission{}, &ValidationError{Msg: "volunteer id is required"}
	}

	m, err := c.add(ctx, missionID, volunteerID, func(m *models.Mission) error {
		if err := c.authorize(ctx, actor, m, "assign volunteer"); err != nil {
			return err
		}
		switch m.Status {
		case models.MissionStatusCancelled, models.MissionStatusCompleted:
			return &ValidationError{Msg: "mission is " + m.Status}
		}
		return nil
	})
	if err != nil {
		return m, err
	}

	c.notify(ctx, []string{volunteerID.Hex()}, notify.Message{
		Title: "Nouvelle affectation : " + m.Title,
		Body:  "Vous avez été affecté(e) à la mission « " + m.Title + " »" + when(&m, c.loc) + ".",
		Link:  missionLink(m.ID),
	})
	return m, nil
}

// AdminUnassign removes volunteerID from the roster on behalf of actor, who
// must be allowed to edit missions of the mission's category.
func (c *Coordinator) AdminUnassign(ctx context.Context, actor *auth.SessionUser, missionID, volunteerID primitive.ObjectID) (models.Mission, error) {
	if _, err := actorID(actor); err != nil {
		return models.Mission{}, err
	}
	if volunteerID.IsZero() {
		return models.Mission{}, &ValidationError{Msg: "volunteer id is required"}
	}

	m, err := c.remove(ctx, missionID, volunteerID, func(m *models.Mission) error {
		return c.authorize(ctx, actor, m, "unassign volunteer")
	})
	if err != nil {
		return m, err
	}

	c.notify(ctx, []string{volunteerID.Hex()}, notify.Message{
		Title: "Affectation annulée : " + m.Title,
		Body:  "Vous avez été retiré(e) de la mission « " + m.Title + " ».",
		Link:  missionLink(m.ID),
	})
	return m, nil
}

// add runs the CAS loop that appends vid. check runs against each fresh
// snapshot before the shared rules.
func (c *Coordinator) add(ctx context.Context, missionID, vid primitive.ObjectID, check func(*models.Mission) error) (models.Mission, error) {
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		m, err := c.load(ctx, missionID)
		if err != nil {
			return models.Mission{}, err
		}
		if check != nil {
			if err := check(&m); err != nil {
				return models.Mission{}, err
			}
		}
		if m.HasVolunteer(vid) {
			return m, ErrAlreadyAssigned
		}
		if len(m.Volunteers) >= m.MaxVolunteers {
			return models.Mission{}, &CapacityError{MissionID: m.ID, MaxVolunteers: m.MaxVolunteers}
		}
		if m.IsScheduled() {
			others, err := c.missions.ListByVolunteer(ctx, vid)
			if err != nil {
				return models.Mission{}, depErr("list volunteer missions", err)
			}
			if o := firstOverlap(&m, others); o != nil {
				return models.Mission{}, &ConflictError{MissionID: o.ID, Title: o.Title}
			}
		}

		roster := make([]primitive.ObjectID, 0, len(m.Volunteers)+1)
		roster = append(roster, m.Volunteers...)
		roster = append(roster, vid)

		updated, retry, err := c.write(ctx, m, roster, attempt)
		if retry {
			continue
		}
		return updated, err
	}
	return models.Mission{}, depErr("update roster", ErrTooManyConflicts)
}

// remove runs the CAS loop that drops vid.
func (c *Coordinator) remove(ctx context.Context, missionID, vid primitive.ObjectID, check func(*models.Mission) error) (models.Mission, error) {
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		m, err := c.load(ctx, missionID)
		if err != nil {
			return models.Mission{}, err
		}
		if check != nil {
			if err := check(&m); err != nil {
				return models.Mission{}, err
			}
		}
		if !m.HasVolunteer(vid) {
			return m, ErrNotAssigned
		}

		roster := make([]primitive.ObjectID, 0, len(m.Volunteers))
		for _, v := range m.Volunteers {
			if v != vid {
				roster = append(roster, v)
			}
		}

		updated, retry, err := c.write(ctx, m, roster, attempt)
		if retry {
			continue
		}
		return updated, err
	}
	return models.Mission{}, depErr("update roster", ErrTooManyConflicts)
}

// write stores roster conditional on m.Version. It reports retry=true when
// another writer got there first.
func (c *Coordinator) write(ctx context.Context, m models.Mission, roster []primitive.ObjectID, attempt int) (models.Mission, bool, error) {
	m.Volunteers = roster
	m.Status = m.EffectiveStatus()

	err := c.missions.UpdateRoster(ctx, m.ID, m.Version, roster, m.Status)
	switch {
	case err == nil:
		m.Version++
		return m, false, nil
	case errors.Is(err, missionstore.ErrVersionConflict):
		c.logger.Debug("roster update conflict, retrying",
			zap.String("mission_id", m.ID.Hex()),
			zap.Int("attempt", attempt))
		return models.Mission{}, true, nil
	case errors.Is(err, missionstore.ErrNotFound):
		return models.Mission{}, false, ErrMissionNotFound
	default:
		return models.Mission{}, false, depErr("update roster", err)
	}
}

func (c *Coordinator) load(ctx context.Context, id primitive.ObjectID) (models.Mission, error) {
	m, err := c.missions.GetByID(ctx, id)
	if errors.Is(err, missionstore.ErrNotFound) {
		return models.Mission{}, ErrMissionNotFound
	}
	if err != nil {
		return models.Mission{}, depErr("load mission", err)
	}
	return m, nil
}

func (c *Coordinator) authorize(ctx context.Context, actor *auth.SessionUser, m *models.Mission, action string) error {
	ok, err := c.perms.CanEdit(ctx, actor, m.Category)
	if err != nil {
		return depErr("resolve categories", err)
	}
	if !ok {
		return &AuthorizationError{Action: action}
	}
	return nil
}

// notify hands msg to the dispatcher. Failures are logged and never
// reported to the caller: the roster change has already been committed.
func (c *Coordinator) notify(ctx context.Context, userIDs []string, msg notify.Message) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	if err := c.notifier.NotifyUsers(nctx, userIDs, msg); err != nil {
		c.logger.Warn("notification dispatch failed",
			zap.Strings("user_ids", userIDs),
			zap.String("title", msg.Title),
			zap.Error(err))
	}
}

func actorID(actor *auth.SessionUser) (primitive.ObjectID, error) {
	if actor == nil {
		return primitive.NilObjectID, &AuthorizationError{Action: "sign in required"}
	}
	id, err := primitive.ObjectIDFromHex(actor.ID)
	if err != nil {
		return primitive.NilObjectID, &ValidationError{Msg: "invalid user id"}
	}
	return id, nil
}

func missionLink(id primitive.ObjectID) string {
	return "/missions/" + id.Hex()
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.UTC
	}
	return loc
}

// when renders " le 02/01/2006 de 15:04 à 17:00" for scheduled missions.
func when(m *models.Mission, loc *time.Location) string {
	if !m.IsScheduled() {
		return ""
	}
	s, e := m.StartAt.In(loc), m.EndAt.In(loc)
	return fmt.Sprintf(" le %s de %s à %s", s.Format("02/01/2006"), s.Format("15:04"), e.Format("15:04"))
}
