// Package categorycache resolves category _ids to category values.
//
// Users store the _ids of the categories they are responsible for while
// missions store the category value, so every permission check goes through
// this cache. Entries live for a fixed TTL and are dropped explicitly by every
// category mutation through Invalidate.
package categorycache

import (
	"context"
	"sync"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultTTL is how long a fetched mapping is served without I/O.
const DefaultTTL = 5 * time.Minute

// Entry is one category _id (hex) with its value.
type Entry struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Lister loads categories grouped by display group.
type Lister interface {
	ListGrouped(ctx context.Context, activeOnly bool) ([]models.CategoryGroup, error)
}

// Resolver is a process-wide cache of the category _id to value mapping.
// Concurrent readers during a refresh may see either the old or the new mapping.
type Resolver struct {
	src    Lister
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu        sync.RWMutex
	entries   []Entry
	byID      map[string]string
	fetchedAt time.Time
	gen       uint64 // bumped by Invalidate; a fetch started before it is not stored
}

// New creates a Resolver. ttl <= 0 uses DefaultTTL.
func New(src Lister, ttl time.Duration, logger *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{src: src, ttl: ttl, now: time.Now, logger: logger}
}

// Get returns the ordered mapping. A fresh cache is served without I/O;
// otherwise the mapping is refreshed. Fetch errors are returned as is.
func (r *Resolver) Get(ctx context.Context) ([]Entry, error) {
	r.mu.RLock()
	if r.fresh() {
		out := r.entries
		r.mu.RUnlock()
		return out, nil
	}
	r.mu.RUnlock()
	return r.Refresh(ctx)
}

// Refresh fetches the mapping unconditionally and stores it.
func (r *Resolver) Refresh(ctx context.Context) ([]Entry, error) {
	r.mu.RLock()
	gen := r.gen
	r.mu.RUnlock()

	groups, err := r.src.ListGrouped(ctx, true)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	byID := make(map[string]string)
	for _, g := range groups {
		for _, c := range g.Categories {
			id := c.ID.Hex()
			entries = append(entries, Entry{ID: id, Value: c.Value})
			byID[id] = c.Value
		}
	}

	r.mu.Lock()
	if r.gen == gen {
		r.entries = entries
		r.byID = byID
		r.fetchedAt = r.now()
	}
	r.mu.Unlock()

	r.logger.Debug("category mapping refreshed", zap.Int("categories", len(entries)))
	return entries, nil
}

// Invalidate drops the cached mapping. Call it after any category
// create, update, archive or delete.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.entries = nil
	r.byID = nil
	r.fetchedAt = time.Time{}
	r.gen++
	r.mu.Unlock()
}

// FetchedAt returns when the cached mapping was fetched, zero when empty.
func (r *Resolver) FetchedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetchedAt
}

// ValuesFor resolves category _ids (hex) to the set of their values.
// Unknown or archived _ids are ignored.
func (r *Resolver) ValuesFor(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	r.mu.RLock()
	if r.fresh() {
		for _, id := range ids {
			if v, ok := r.byID[id]; ok {
				out[v] = struct{}{}
			}
		}
		r.mu.RUnlock()
		return out, nil
	}
	r.mu.RUnlock()

	entries, err := r.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for _, e := range entries {
		if _, ok := want[e.ID]; ok {
			out[e.Value] = struct{}{}
		}
	}
	return out, nil
}

// fresh reports whether the cache can be served. Caller holds r.mu.
func (r *Resolver) fresh() bool {
	return !r.fetchedAt.IsZero() && r.now().Sub(r.fetchedAt) < r.ttl
}
