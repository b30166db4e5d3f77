package idempotency

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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stores(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client, discardLogger()),
	}
}

func TestManagerRun(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			m := NewManager(store, discardLogger())
			ctx := context.Background()

			calls := 0
			handle := func(context.Context) error {
				calls++
				return nil
			}

			outcome, err := m.Run(ctx, name+":upd:1", handle)
			require.NoError(t, err)
			assert.Equal(t, OutcomeRan, outcome)

			outcome, err = m.Run(ctx, name+":upd:1", handle)
			require.NoError(t, err)
			assert.Equal(t, OutcomeDuplicate, outcome)
			assert.Equal(t, 1, calls)

			boom := errors.New("telegram down")
			_, err = m.Run(ctx, name+":upd:2", func(context.Context) error { return boom })
			assert.ErrorIs(t, err, boom)

			outcome, err = m.Run(ctx, name+":upd:2", handle)
			require.NoError(t, err)
			assert.Equal(t, OutcomeRan, outcome, "a failed update can be retried")
			assert.Equal(t, 2, calls)
		})
	}
}

func TestManagerReportsInProgress(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			m := NewManager(store, discardLogger())
			ctx := context.Background()

			var inner Outcome
			_, err := m.Run(ctx, "upd:9", func(ctx context.Context) error {
				var err error
				inner, err = m.Run(ctx, "upd:9", func(context.Context) error {
					t.Fatal("duplicate must not run")
					return nil
				})
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, OutcomeInProgress, inner)
		})
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := s.Claim(ctx, "upd:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Complete(ctx, "upd:1", time.Hour))

	ok, _ = s.Claim(ctx, "upd:1", time.Minute)
	assert.False(t, ok)

	now = now.Add(2 * time.Hour)
	status, _ := s.Status(ctx, "upd:1")
	assert.Equal(t, StatusNone, status)

	ok, _ = s.Claim(ctx, "upd:1", time.Minute)
	assert.True(t, ok)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, GenerateKey(int64(5), 9), GenerateKey(int64(5), 9))
	assert.NotEqual(t, GenerateKey(5, 9), GenerateKey(9, 5))
	assert.Len(t, GenerateKey("x"), 64)
	assert.Equal(t, "duplicate", OutcomeDuplicate.String())
}
