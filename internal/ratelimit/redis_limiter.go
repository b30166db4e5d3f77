package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// slidingWindow trims the window, then admits the hit only while the count
// is below the limit. Scores are unix milliseconds.
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = window
if oldest[2] then
	retry = tonumber(oldest[2]) + window - now
end
return {0, 0, retry}
`)

// RedisLimiter shares sliding windows between bot replicas through sorted sets.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
	log    *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		now:    time.Now,
		log:    log,
	}
}

// Allow evaluates and records one update of key atomically.
func (l *RedisLimiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if l.client == nil {
		return Decision{}, errors.New("redis client is not configured for rate limiting")
	}
	if !rule.Valid() {
		return Decision{Allowed: true}, nil
	}

	values, err := slidingWindow.Run(ctx, l.client, []string{redisKeyPrefix + key},
		l.now().UnixMilli(),
		rule.Window.Milliseconds(),
		rule.Limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		l.log.Error("rate limit script failed", slog.String("key", key), slog.Any("error", err))
		return Decision{}, err
	}
	if len(values) != 3 {
		return Decision{}, fmt.Errorf("rate limit script returned %d values", len(values))
	}

	return Decision{
		Allowed:    values[0] == 1,
		Remaining:  int(values[1]),
		RetryAfter: time.Duration(values[2]) * time.Millisecond,
	}, nil
}
