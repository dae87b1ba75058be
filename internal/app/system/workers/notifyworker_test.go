package workers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/workers"
	"go.uber.org/zap"
)

type memQueue struct {
	mu      sync.Mutex
	jobs    []*notify.Job
	retried []*notify.Job
}

func (q *memQueue) Dequeue(ctx context.Context, timeout time.Duration) (*notify.Job, error) {
	q.mu.Lock()
	if len(q.jobs) > 0 {
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		return j, nil
	}
	q.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, nil
	}
}

func (q *memQueue) Retry(_ context.Context, job *notify.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Attempt++
	q.retried = append(q.retried, job)
	return nil
}

type countingHandler struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
	done chan struct{}
	want int
}

func (h *countingHandler) Process(_ context.Context, job *notify.Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, job.ID)
	if len(h.seen) == h.want {
		close(h.done)
	}
	if h.fail[job.ID] {
		return errors.New("send failed")
	}
	return nil
}

func TestNotifyWorker_ProcessesAndRetries(t *testing.T) {
	q := &memQueue{jobs: []*notify.Job{{ID: "ok"}, {ID: "bad"}, {ID: "ok2"}}}
	h := &countingHandler{fail: map[string]bool{"bad": true}, done: make(chan struct{}), want: 3}

	w := workers.NewNotifyWorker(q, h, zap.NewNop(), 10*time.Millisecond)
	w.SetBackoff(time.Millisecond)
	w.Start()

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not process all jobs")
	}
	w.Stop()

	if len(q.retried) != 1 || q.retried[0].ID != "bad" {
		t.Errorf("retried = %v, want [bad]", q.retried)
	}
	if q.retried[0].Attempt != 1 {
		t.Errorf("attempt = %d, want 1", q.retried[0].Attempt)
	}
}

func TestNotifyWorker_StopWhileIdle(t *testing.T) {
	w := workers.NewNotifyWorker(&memQueue{}, &countingHandler{done: make(chan struct{})}, zap.NewNop(), time.Hour)
	w.Start()

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while the worker was blocked on dequeue")
	}
}

func TestNotifyWorker_StopWithoutStart(t *testing.T) {
	w := workers.NewNotifyWorker(&memQueue{}, &countingHandler{}, zap.NewNop(), time.Second)
	w.Stop()
}
