// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter allows at most limit events per key within any sliding window of
// the configured duration. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	hits     map[string][]time.Time
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// New creates a limiter and starts its cleanup loop. Call Stop to end it.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		hits:     make(map[string][]time.Time),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow records an event for key and reports whether it is within the limit.
// Rejected events are not recorded.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(key, now)
	if len(recent) >= l.limit {
		return false
	}
	l.hits[key] = append(recent, now)
	return true
}

// Remaining returns how many events are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := l.limit - len(l.prune(key, l.now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears the history for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}

// Stop ends the cleanup loop.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// prune drops hits older than the window. Caller holds l.mu.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.duration)
	hits := l.hits[key]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]
	if len(hits) == 0 {
		delete(l.hits, key)
		return nil
	}
	l.hits[key] = hits
	return hits
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key := range l.hits {
				l.prune(key, now)
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RosterLimiter throttles self-service register/unregister requests per user.
type RosterLimiter struct {
	users *Limiter
}

// NewRosterLimiter allows limit roster changes per user per window.
func NewRosterLimiter(limit int, window time.Duration) *RosterLimiter {
	return &RosterLimiter{users: New(limit, window)}
}

// Check reports whether userID may change a roster now, with a message for the user when not.
func (rl *RosterLimiter) Check(userID string) (bool, string) {
	if !rl.users.Allow(userID) {
		return false, "Trop de demandes d'inscription. Réessayez dans quelques instants."
	}
	return true, ""
}

// Stop ends the background cleanup.
func (rl *RosterLimiter) Stop() {
	rl.users.Stop()
}
