package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// Cache stores admin lookups in Redis. A cached miss is stored as well so
// regular users do not hit the database on every update.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedAdmin struct {
	Admin *domain.Admin `json:"admin,omitempty"`
}

// NewCache constructs an admin cache backed by the provided Redis client.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached entry. ok is false when nothing is cached; a cached
// miss yields ok with a nil admin.
func (c *Cache) Get(ctx context.Context, telegramID int64) (*domain.Admin, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}

	data, err := c.client.Get(ctx, cacheKey(telegramID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached admin: %w", err)
	}

	var entry cachedAdmin
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("decode cached admin: %w", err)
	}

	return entry.Admin, true, nil
}

// Set caches admin, or a miss when admin is nil.
func (c *Cache) Set(ctx context.Context, telegramID int64, admin *domain.Admin) error {
	if c == nil || c.client == nil {
		return nil
	}

	payload, err := json.Marshal(cachedAdmin{Admin: admin})
	if err != nil {
		return fmt.Errorf("encode admin for cache: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(telegramID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached admin: %w", err)
	}

	return nil
}

// Invalidate removes the cached entry if it exists.
func (c *Cache) Invalidate(ctx context.Context, telegramID int64) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, cacheKey(telegramID)).Err(); err != nil {
		return fmt.Errorf("delete cached admin: %w", err)
	}

	return nil
}

func cacheKey(telegramID int64) string {
	return fmt.Sprintf("admin:%d", telegramID)
}
