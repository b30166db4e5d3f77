package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func newRedisLimiter(t *testing.T, clk *clock) *RedisLimiter {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, testLogger())
	l.now = clk.now
	return l
}

func newMemoryLimiter(clk *clock) *MemoryLimiter {
	l := NewMemoryLimiter(testLogger())
	l.now = clk.now
	return l
}

func TestLimiters(t *testing.T) {
	backends := map[string]func(t *testing.T, clk *clock) Limiter{
		"memory": func(_ *testing.T, clk *clock) Limiter { return newMemoryLimiter(clk) },
		"redis":  func(t *testing.T, clk *clock) Limiter { return newRedisLimiter(t, clk) },
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rule := Rule{Limit: 2, Window: 10 * time.Second}

			t.Run("allows within limit", func(t *testing.T) {
				clk := newClock()
				l := build(t, clk)

				d, err := l.Allow(ctx, "user:1", rule)
				require.NoError(t, err)
				assert.True(t, d.Allowed)
				assert.Equal(t, 1, d.Remaining)
			})

			t.Run("rejects over limit with retry after", func(t *testing.T) {
				clk := newClock()
				l := build(t, clk)

				for i := 0; i < 2; i++ {
					d, err := l.Allow(ctx, "user:1", rule)
					require.NoError(t, err)
					require.True(t, d.Allowed)
					clk.advance(2 * time.Second)
				}

				d, err := l.Allow(ctx, "user:1", rule)
				require.NoError(t, err)
				assert.False(t, d.Allowed)
				assert.Equal(t, 6*time.Second, d.RetryAfter)

				other, err := l.Allow(ctx, "user:2", rule)
				require.NoError(t, err)
				assert.True(t, other.Allowed)
			})

			t.Run("window slides", func(t *testing.T) {
				clk := newClock()
				l := build(t, clk)

				for i := 0; i < 2; i++ {
					_, err := l.Allow(ctx, "code:1", rule)
					require.NoError(t, err)
				}
				clk.advance(rule.Window)

				d, err := l.Allow(ctx, "code:1", rule)
				require.NoError(t, err)
				assert.True(t, d.Allowed)
			})

			t.Run("rejected hits are not counted", func(t *testing.T) {
				clk := newClock()
				l := build(t, clk)

				for i := 0; i < 5; i++ {
					_, err := l.Allow(ctx, "user:3", rule)
					require.NoError(t, err)
				}
				clk.advance(rule.Window + time.Millisecond)

				d, err := l.Allow(ctx, "user:3", rule)
				require.NoError(t, err)
				assert.True(t, d.Allowed)
				assert.Equal(t, 1, d.Remaining)
			})
		})
	}
}

func TestMemoryLimiterPrune(t *testing.T) {
	clk := newClock()
	l := newMemoryLimiter(clk)
	rule := Rule{Limit: 5, Window: time.Minute}

	_, _ = l.Allow(context.Background(), "user:1", rule)
	clk.advance(30 * time.Minute)
	_, _ = l.Allow(context.Background(), "user:2", rule)

	assert.Equal(t, 1, l.Prune(10*time.Minute))
	assert.Len(t, l.windows, 1)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, Rule) (Decision, error) {
	return Decision{}, errors.New("redis: connection refused")
}

func TestAdaptiveLimiterFallsBackWithHalfLimit(t *testing.T) {
	clk := newClock()
	l := NewAdaptiveLimiter(failingLimiter{}, newMemoryLimiter(clk), testLogger())
	rule := Rule{Limit: 4, Window: time.Minute}

	for i := 0; i < 2; i++ {
		d, err := l.Allow(context.Background(), "user:1", rule)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := l.Allow(context.Background(), "user:1", rule)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestInvalidRuleAllowsEverything(t *testing.T) {
	l := newMemoryLimiter(newClock())
	d, err := l.Allow(context.Background(), "user:1", Rule{})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
