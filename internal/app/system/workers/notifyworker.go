// internal/app/system/workers/notifyworker.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"go.uber.org/zap"
)

// JobSource is the queue side the worker consumes.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*notify.Job, error)
	Retry(ctx context.Context, job *notify.Job) error
}

// JobHandler processes one job.
type JobHandler interface {
	Process(ctx context.Context, job *notify.Job) error
}

// NotifyWorker is a background worker that drains the notification queue.
type NotifyWorker struct {
	queue   JobSource
	handler JobHandler
	log     *zap.Logger
	poll    time.Duration
	backoff time.Duration
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewNotifyWorker creates a new notification worker.
//
// Parameters:
//   - q: the job queue
//   - h: the processor that sends each job
//   - logger: zap logger for logging
//   - poll: how long each blocking dequeue waits before checking for shutdown
func NewNotifyWorker(q JobSource, h JobHandler, logger *zap.Logger, poll time.Duration) *NotifyWorker {
	return &NotifyWorker{
		queue:   q,
		handler: h,
		log:     logger,
		poll:    poll,
		backoff: notify.RetryBackoff,
	}
}

// SetBackoff overrides the pause after a failure.
func (w *NotifyWorker) SetBackoff(d time.Duration) { w.backoff = d }

// Start begins the background loop.
func (w *NotifyWorker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go w.run(ctx)
	w.log.Info("notification worker started", zap.Duration("poll", w.poll))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *NotifyWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
	w.log.Info("notification worker stopped")
}

func (w *NotifyWorker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		job, err := w.queue.Dequeue(ctx, w.poll)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warn("dequeue error", zap.Error(err))
			w.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		w.handle(ctx, job)
	}
}

func (w *NotifyWorker) handle(ctx context.Context, job *notify.Job) {
	jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	w.log.Debug("processing notification job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	if err := w.handler.Process(jobCtx, job); err != nil {
		w.log.Error("notification job failed", zap.String("job_id", job.ID), zap.Error(err))
		if reErr := w.queue.Retry(context.WithoutCancel(ctx), job); reErr != nil {
			w.log.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(reErr))
		}
		w.sleep(ctx)
	}
}

func (w *NotifyWorker) sleep(ctx context.Context) {
	t := time.NewTimer(w.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
