// internal/app/system/notify/queue.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueKey is the Redis list holding pending notification jobs.
	QueueKey = "benevoles:notify"
	// DeadLetterKey holds jobs that failed MaxRetries times.
	DeadLetterKey = "benevoles:notify:dlq"
	// MaxRetries is the number of attempts before a job goes to the dead-letter list.
	MaxRetries = 3
	// RetryBackoff is how long the worker pauses after a failure.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeNotifyUsers JobType = "notify_users"
	JobTypeBroadcast   JobType = "broadcast"
)

// Job is the envelope stored in Redis.
type Job struct {
	ID        string    `json:"id"`
	Type      JobType   `json:"type"`
	UserIDs   []string  `json:"user_ids,omitempty"`
	Target    Target    `json:"target,omitempty"`
	Message   Message   `json:"message"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"created_at"`
}

// Queue pushes and pops notification jobs on a Redis list.
type Queue struct {
	client redis.Cmdable
	logger *zap.Logger
}

// NewQueue creates a Redis-backed job queue.
func NewQueue(client redis.Cmdable, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// NewJob builds a job with a fresh id.
func NewJob(typ JobType, msg Message) Job {
	return Job{
		ID:        uuid.New().String(),
		Type:      typ,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
}

// Enqueue appends job to the queue.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueKey, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued notification job",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)))
	return nil
}

// Dequeue blocks up to timeout for a job. It returns (nil, nil) when the
// wait times out or the payload cannot be decoded.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, QueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid notification job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues job with its attempt count incremented, or moves it to
// the dead-letter list once it reaches MaxRetries.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, DeadLetterKey, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("notification job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, QueueKey, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("notification job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// Pending returns the number of queued jobs.
func (q *Queue) Pending(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, QueueKey).Result()
}

// DeadLetters returns the number of jobs in the dead-letter list.
func (q *Queue) DeadLetters(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, DeadLetterKey).Result()
}

// QueueDispatcher implements Dispatcher by enqueueing jobs for the worker.
type QueueDispatcher struct {
	q *Queue
}

// NewQueueDispatcher wraps q as a Dispatcher.
func NewQueueDispatcher(q *Queue) *QueueDispatcher {
	return &QueueDispatcher{q: q}
}

// NotifyUsers enqueues msg for the given users. An empty list is a no-op.
func (d *QueueDispatcher) NotifyUsers(ctx context.Context, userIDs []string, msg Message) error {
	if len(userIDs) == 0 {
		return nil
	}
	job := NewJob(JobTypeNotifyUsers, msg)
	job.UserIDs = userIDs
	return d.q.Enqueue(ctx, job)
}

// Broadcast enqueues msg for every user matching target.
func (d *QueueDispatcher) Broadcast(ctx context.Context, target Target, msg Message) error {
	if _, err := ParseTarget(string(target)); err != nil {
		return err
	}
	job := NewJob(JobTypeBroadcast, msg)
	job.Target = target
	return d.q.Enqueue(ctx, job)
}
