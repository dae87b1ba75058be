// internal/app/system/notify/processor.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/mailer"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Recipients looks up the users a job is addressed to.
type Recipients interface {
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	ListByRoles(ctx context.Context, roles ...string) ([]models.User, error)
}

// Processor turns a job into emails.
type Processor struct {
	users    Recipients
	sender   mailer.Sender
	siteName string
	baseURL  string
	logger   *zap.Logger
}

// NewProcessor creates a job processor. baseURL prefixes relative message links.
func NewProcessor(users Recipients, sender mailer.Sender, siteName, baseURL string, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{users: users, sender: sender, siteName: siteName, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// Process delivers one job. Users without communication consent are skipped.
// A job is failed (and retried by the caller) only when the recipient lookup
// fails or every send fails.
func (p *Processor) Process(ctx context.Context, job *Job) error {
	users, err := p.recipients(ctx, job)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	var sent, failed int
	var lastErr error
	for i := range users {
		u := &users[i]
		if !u.CanReceiveNotifications() || u.Email == "" {
			continue
		}
		email := mailer.BuildNotificationEmail(u.Email, mailer.NotificationData{
			SiteName:  p.siteName,
			Recipient: u.FullName,
			Title:     job.Message.Title,
			Body:      job.Message.Body,
			Link:      p.link(job.Message.Link),
		})
		if err := p.sender.Send(ctx, email); err != nil {
			failed++
			lastErr = err
			p.logger.Warn("notification email failed",
				zap.String("job_id", job.ID),
				zap.String("user_id", u.ID.Hex()),
				zap.Error(err))
			continue
		}
		sent++
	}

	p.logger.Info("notification job processed",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Int("recipients", len(users)),
		zap.Int("sent", sent),
		zap.Int("failed", failed))

	if sent == 0 && failed > 0 {
		return lastErr
	}
	return nil
}

func (p *Processor) recipients(ctx context.Context, job *Job) ([]models.User, error) {
	switch job.Type {
	case JobTypeNotifyUsers:
		ids := make([]primitive.ObjectID, 0, len(job.UserIDs))
		for _, s := range job.UserIDs {
			oid, err := primitive.ObjectIDFromHex(s)
			if err != nil {
				p.logger.Warn("skipping invalid user id in notification job", zap.String("job_id", job.ID), zap.String("user_id", s))
				continue
			}
			ids = append(ids, oid)
		}
		if len(ids) == 0 {
			return nil, nil
		}
		return p.users.ListByIDs(ctx, ids)
	case JobTypeBroadcast:
		return p.users.ListByRoles(ctx, rolesFor(job.Target)...)
	default:
		return nil, errors.New("unknown job type: " + string(job.Type))
	}
}

func rolesFor(t Target) []string {
	switch t {
	case TargetVolunteers:
		return []string{models.RoleVolunteer}
	case TargetResponsibles:
		return []string{models.RoleMissionResponsible, models.RoleCategoryResponsible}
	default:
		return []string{models.RoleVolunteer, models.RoleMissionResponsible, models.RoleCategoryResponsible, models.RoleAdmin}
	}
}

func (p *Processor) link(l string) string {
	if l == "" || p.baseURL == "" || l[0] != '/' {
		return l
	}
	return p.baseURL + l
}
