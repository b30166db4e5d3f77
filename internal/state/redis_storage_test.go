package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStorage_SetAndGet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)
	ctx := context.Background()

	description := "Yangi film"
	wizard := &MovieWizard{
		Code:        120,
		Title:       "Qasoskorlar",
		Description: &description,
		Fields:      []FieldOption{{ID: 1, Name: "kinolar", ChannelID: "-1001"}},
	}
	wizard.Step = MovieStepField

	session := &Session{OwnerID: 123, Wizard: wizard, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	require.NoError(t, storage.SetSession(ctx, session))

	result, err := storage.GetSession(ctx, 123)
	require.NoError(t, err)

	got, ok := result.Wizard.(*MovieWizard)
	require.True(t, ok)
	assert.Equal(t, MovieStepField, got.Step)
	assert.Equal(t, 120, got.Code)
	assert.Equal(t, "Qasoskorlar", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, description, *got.Description)
	assert.Equal(t, wizard.Fields, got.Fields)
	assert.Nil(t, got.Field)
}

func TestRedisStorage_GetNotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)

	session, err := storage.GetSession(context.Background(), 999)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_ClearSession(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)
	ctx := context.Background()

	require.NoError(t, storage.SetSession(ctx, &Session{OwnerID: 1, Wizard: &DeleteContentWizard{}}))
	require.NoError(t, storage.ClearSession(ctx, 1))
	require.NoError(t, storage.ClearSession(ctx, 1))

	_, err := storage.GetSession(ctx, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_TTL(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, storage.SetSession(ctx, &Session{OwnerID: 5, Wizard: &ContactMessageWizard{}}))

	ttl, err := client.TTL(ctx, sessionKey(5)).Result()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, ttl)
}

func TestRedisStorage_GetAllSessionsSkipsLocks(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)
	ctx := context.Background()

	require.NoError(t, storage.SetSession(ctx, &Session{OwnerID: 1, Wizard: &BroadcastWizard{Audience: AudiencePremium}}))
	require.NoError(t, storage.SetSession(ctx, &Session{OwnerID: 2, Wizard: &ApprovePaymentWizard{PaymentRef: PaymentRef{PaymentID: 9}}}))
	require.NoError(t, client.Set(ctx, "session:lock:1", "token", time.Minute).Err())

	sessions, err := storage.GetAllSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	states := map[int64]State{}
	for _, s := range sessions {
		states[s.OwnerID] = s.State()
	}
	assert.Equal(t, StateBroadcasting, states[1])
	assert.Equal(t, StateApprovePayment, states[2])
}

func TestMemoryStorage_IsolatesCallers(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	wizard := &ApprovePaymentWizard{PaymentRef: PaymentRef{PaymentID: 1}}
	require.NoError(t, storage.SetSession(ctx, &Session{OwnerID: 1, Wizard: wizard}))

	wizard.PaymentID = 2

	session, err := storage.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, session.Wizard.(*ApprovePaymentWizard).PaymentID)
}

func TestDecodeSession_UnknownState(t *testing.T) {
	_, err := decodeSession([]byte(`{"owner_id":1,"state":"buying","data":{}}`))
	assert.Error(t, err)
}
