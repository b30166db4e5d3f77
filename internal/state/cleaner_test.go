package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	machine := NewMachine(NewMemoryStorage(), testLogger(), WithIdleTTL(10*time.Minute), WithClock(func() time.Time { return now }))

	_, err := machine.Start(ctx, 1, &FieldWizard{})
	require.NoError(t, err)

	now = now.Add(8 * time.Minute)
	_, err = machine.Start(ctx, 2, &FieldWizard{})
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)

	cleaner := NewCleaner(machine, testLogger(), time.Minute)
	cleared, err := cleaner.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	sessions, err := machine.storage.GetAllSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.EqualValues(t, 2, sessions[0].OwnerID)
}

func TestCleaner_RunStopsOnCancel(t *testing.T) {
	machine := NewMachine(NewMemoryStorage(), testLogger(), WithIdleTTL(time.Minute))
	cleaner := NewCleaner(machine, testLogger(), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleaner.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop")
	}
}
