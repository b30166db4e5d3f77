package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryLimiter keeps a sliding window log per key in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
	log     *slog.Logger
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an empty in-memory limiter.
func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		windows: make(map[string][]time.Time),
		now:     time.Now,
		log:     log,
	}
}

// Allow records the update when it fits in the window of key.
func (m *MemoryLimiter) Allow(_ context.Context, key string, rule Rule) (Decision, error) {
	if !rule.Valid() {
		return Decision{Allowed: true}, nil
	}

	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	hits := dropBefore(m.windows[key], now.Add(-rule.Window))
	if len(hits) >= rule.Limit {
		m.windows[key] = hits
		return Decision{RetryAfter: hits[0].Add(rule.Window).Sub(now)}, nil
	}

	hits = append(hits, now)
	m.windows[key] = hits
	return Decision{Allowed: true, Remaining: rule.Limit - len(hits)}, nil
}

// Prune forgets keys whose last update is older than idle and returns how
// many were removed.
func (m *MemoryLimiter) Prune(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, hits := range m.windows {
		if len(hits) == 0 || hits[len(hits)-1].Before(cutoff) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// dropBefore removes the leading hits at or before start, reusing the slice.
func dropBefore(hits []time.Time, start time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(start) {
		i++
	}
	if i == 0 {
		return hits
	}
	n := copy(hits, hits[i:])
	return hits[:n]
}
