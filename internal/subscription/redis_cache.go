package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	requestKeyPattern  = "joinreq:%d"
	requestScanPattern = "joinreq:*"
	requestScanBatch   = 100
)

// RedisCache stores join requests in one hash per user: field is the chat id,
// value is the request time in unix milliseconds.
type RedisCache struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
	dedupe time.Duration
}

var _ RequestCache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, log *slog.Logger, ttl, dedupe time.Duration) *RedisCache {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	if dedupe <= 0 {
		dedupe = DefaultDedupeWindow
	}

	return &RedisCache{
		client: client,
		log:    log,
		ttl:    ttl,
		dedupe: dedupe,
	}
}

func (c *RedisCache) Add(ctx context.Context, userID int64, chatID string, now time.Time) (bool, error) {
	key := joinRequestKey(userID)

	entries, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		c.log.Error("failed to read join requests", slog.Int64("user_id", userID), slog.Any("error", err))
		return false, err
	}

	if raw, ok := entries[chatID]; ok {
		if at, ok := parseMillis(raw); ok && now.Sub(at) < c.dedupe {
			return false, nil
		}
	}

	var stale []string
	for field, raw := range entries {
		if field == chatID {
			continue
		}
		if at, ok := parseMillis(raw); !ok || now.Sub(at) > c.ttl {
			stale = append(stale, field)
		}
	}

	pipe := c.client.TxPipeline()
	if len(stale) > 0 {
		pipe.HDel(ctx, key, stale...)
	}
	pipe.HSet(ctx, key, chatID, strconv.FormatInt(now.UnixMilli(), 10))
	pipe.Expire(ctx, key, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Error("failed to store join request", slog.Int64("user_id", userID), slog.String("chat_id", chatID), slog.Any("error", err))
		return false, err
	}

	return true, nil
}

func (c *RedisCache) Has(ctx context.Context, userID int64, chatID string, now time.Time) (bool, error) {
	raw, err := c.client.HGet(ctx, joinRequestKey(userID), chatID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	at, ok := parseMillis(raw)
	return ok && now.Sub(at) <= c.ttl, nil
}

func (c *RedisCache) Remove(ctx context.Context, userID int64, chatID string) (bool, error) {
	removed, err := c.client.HDel(ctx, joinRequestKey(userID), chatID).Result()
	if err != nil {
		return false, err
	}

	return removed > 0, nil
}

// Prune walks every user hash. Hashes also expire on their own once the
// newest request is older than the TTL.
func (c *RedisCache) Prune(ctx context.Context, now time.Time) (int, error) {
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := c.client.Scan(ctx, cursor, requestScanPattern, requestScanBatch).Result()
		if err != nil {
			return removed, err
		}

		for _, key := range keys {
			entries, err := c.client.HGetAll(ctx, key).Result()
			if err != nil {
				return removed, err
			}

			var stale []string
			for field, raw := range entries {
				if at, ok := parseMillis(raw); !ok || now.Sub(at) > c.ttl {
					stale = append(stale, field)
				}
			}
			if len(stale) == 0 {
				continue
			}

			n, err := c.client.HDel(ctx, key, stale...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return removed, nil
}

func joinRequestKey(userID int64) string {
	return fmt.Sprintf(requestKeyPattern, userID)
}

func parseMillis(raw string) (time.Time, bool) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
