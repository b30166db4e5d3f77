package subscription

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRequestTTL is how long a join request stays usable as a provisional pass.
	DefaultRequestTTL = 10 * time.Minute
	// DefaultDedupeWindow suppresses bookkeeping for repeated join requests.
	DefaultDedupeWindow = 5 * time.Minute
)

// RequestCache remembers recent chat join requests keyed by (user, chat).
type RequestCache interface {
	// Add records a join request made at now. It returns false when a request
	// for the same pair was already recorded within the dedupe window.
	Add(ctx context.Context, userID int64, chatID string, now time.Time) (bool, error)
	// Has reports whether a request younger than the TTL exists.
	Has(ctx context.Context, userID int64, chatID string, now time.Time) (bool, error)
	// Remove deletes the entry and reports whether it existed.
	Remove(ctx context.Context, userID int64, chatID string) (bool, error)
	// Prune drops entries older than the TTL and returns how many were removed.
	Prune(ctx context.Context, now time.Time) (int, error)
}

type requestKey struct {
	userID int64
	chatID string
}

// MemoryCache is a process-local RequestCache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[requestKey]time.Time
	ttl     time.Duration
	dedupe  time.Duration
}

var _ RequestCache = (*MemoryCache)(nil)

func NewMemoryCache(ttl, dedupe time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	if dedupe <= 0 {
		dedupe = DefaultDedupeWindow
	}

	return &MemoryCache{
		entries: make(map[requestKey]time.Time),
		ttl:     ttl,
		dedupe:  dedupe,
	}
}

func (c *MemoryCache) Add(_ context.Context, userID int64, chatID string, now time.Time) (bool, error) {
	key := requestKey{userID: userID, chatID: chatID}

	c.mu.Lock()
	defer c.mu.Unlock()

	if at, ok := c.entries[key]; ok && now.Sub(at) < c.dedupe {
		return false, nil
	}

	c.entries[key] = now
	c.pruneLocked(now)

	return true, nil
}

func (c *MemoryCache) Has(_ context.Context, userID int64, chatID string, now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.entries[requestKey{userID: userID, chatID: chatID}]
	return ok && now.Sub(at) <= c.ttl, nil
}

func (c *MemoryCache) Remove(_ context.Context, userID int64, chatID string) (bool, error) {
	key := requestKey{userID: userID, chatID: chatID}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false, nil
	}
	delete(c.entries, key)

	return true, nil
}

func (c *MemoryCache) Prune(_ context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pruneLocked(now), nil
}

func (c *MemoryCache) pruneLocked(now time.Time) int {
	removed := 0
	for key, at := range c.entries {
		if now.Sub(at) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
