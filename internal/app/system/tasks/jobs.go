// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/categorycache"
	"go.uber.org/zap"
)

// CategoryRefreshJob reloads the category mapping shortly before it expires,
// so request paths rarely pay for the fetch.
func CategoryRefreshJob(resolver *categorycache.Resolver, logger *zap.Logger, ttl time.Duration) Job {
	interval := ttl - ttl/10
	if interval <= 0 {
		interval = time.Minute
	}
	return Job{
		Name:     "category-cache-refresh",
		Interval: interval,
		Run: func(ctx context.Context) error {
			entries, err := resolver.Refresh(ctx)
			if err != nil {
				return err
			}
			logger.Debug("category mapping refreshed", zap.Int("entries", len(entries)))
			return nil
		},
	}
}

// QueueStats is the part of the notification queue the monitor reads.
type QueueStats interface {
	Pending(ctx context.Context) (int64, error)
	DeadLetters(ctx context.Context) (int64, error)
}

// NotifyQueueMonitorJob logs the queue backlog and warns when jobs reach the dead-letter list.
func NotifyQueueMonitorJob(q QueueStats, logger *zap.Logger) Job {
	return Job{
		Name:     "notify-queue-monitor",
		Interval: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			pending, err := q.Pending(ctx)
			if err != nil {
				return err
			}
			dead, err := q.DeadLetters(ctx)
			if err != nil {
				return err
			}
			if dead > 0 {
				logger.Warn("notification jobs in dead-letter list",
					zap.Int64("dead", dead),
					zap.Int64("pending", pending))
			} else if pending > 0 {
				logger.Debug("notification backlog", zap.Int64("pending", pending))
			}
			return nil
		},
	}
}
