package jobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/kino-bot/pkg/config"
)

func TestPremiumExpiryTask(t *testing.T) {
	task, err := NewPremiumExpiryTask(false)
	require.NoError(t, err)
	assert.Equal(t, TaskTypePremiumExpiry, task.Type())

	var payload PremiumExpiryPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.False(t, payload.Notify)
}

func TestSessionCleanupTask(t *testing.T) {
	task, err := NewSessionCleanupTask()
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSessionCleanup, task.Type())

	var payload SessionCleanupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.False(t, payload.RequestedAt.IsZero())
}

func TestQueuesPreferCritical(t *testing.T) {
	assert.Greater(t, Queues[QueueCritical], Queues[QueueDefault])
	assert.Greater(t, Queues[QueueDefault], Queues[QueueLow])
	assert.Equal(t, TaskTypeJoinCachePrune, NewJoinCachePruneTask().Type())
}

func TestScheduleSkipsDisabledEntries(t *testing.T) {
	entries, err := Schedule(config.JobsConfig{
		PremiumExpiryCron:  "@every 1h",
		JoinCachePruneCron: "*/30 * * * *",
	})
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, TaskTypePremiumExpiry, entries[0].Task.Type())
	assert.Equal(t, "@every 1h", entries[0].Cron)
	assert.Equal(t, TaskTypeJoinCachePrune, entries[1].Task.Type())

	none, err := Schedule(config.JobsConfig{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
