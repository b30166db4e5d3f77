package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProbes(t *testing.T) {
	ctx := context.Background()
	p := NewProbes(discardLogger())

	assert.NoError(t, p.Liveness(ctx))
	assert.Error(t, p.Readiness(ctx))

	p.MarkReady()
	assert.NoError(t, p.Readiness(ctx))

	p.MarkNotReady()
	assert.Error(t, p.Readiness(ctx))
	assert.NoError(t, p.Liveness(ctx))
}

func TestShutdownRunsEveryHook(t *testing.T) {
	s := NewShutdown(discardLogger())

	var ran atomic.Int32
	s.Register(PhaseStorage, "database", func(context.Context) error {
		ran.Add(1)
		return nil
	})
	s.Register(PhaseStorage, "redis", func(context.Context) error {
		ran.Add(1)
		return errors.New("already closed")
	})
	s.Register(PhaseWorkers, "ignored", nil)

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: already closed")
	assert.Equal(t, int32(2), ran.Load())
}

func TestShutdownRunsPhasesInOrder(t *testing.T) {
	s := NewShutdown(discardLogger())

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	s.Register(PhaseStorage, "database", record("database"))
	s.Register(PhaseWorkers, "jobs", record("jobs"))

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"jobs", "database"}, order)
	assert.Equal(t, "storage", PhaseStorage.String())
}

func TestShutdownWithoutHooks(t *testing.T) {
	assert.NoError(t, NewShutdown(nil).Execute(context.Background()))
}
