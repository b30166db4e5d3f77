package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errStorageFailure = errors.New("storage error")

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) GetSession(ctx context.Context, ownerID int64) (*Session, error) {
	args := m.Called(ctx, ownerID)
	session, _ := args.Get(0).(*Session)
	return session, args.Error(1)
}

func (m *mockStorage) SetSession(ctx context.Context, session *Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockStorage) ClearSession(ctx context.Context, ownerID int64) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func (m *mockStorage) GetAllSessions(ctx context.Context) ([]*Session, error) {
	args := m.Called(ctx)
	sessions, _ := args.Get(0).([]*Session)
	return sessions, args.Error(1)
}

func TestMachine_Start(t *testing.T) {
	ctx := context.Background()
	ownerID := int64(42)

	testCases := []struct {
		name        string
		setupMocks  func(ms *mockStorage)
		expectedErr error
	}{
		{
			name: "fresh session",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, ownerID).Return((*Session)(nil), ErrSessionNotFound).Once()
				ms.On("SetSession", mock.Anything, mock.MatchedBy(func(s *Session) bool {
					return s.OwnerID == ownerID && s.State() == StateCreatingMovie && s.Step() == 0
				})).Return(nil).Once()
			},
		},
		{
			name: "overwrites previous wizard",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, ownerID).
					Return(&Session{OwnerID: ownerID, Wizard: &FieldWizard{}}, nil).Once()
				ms.On("SetSession", mock.Anything, mock.MatchedBy(func(s *Session) bool {
					return s.State() == StateCreatingMovie
				})).Return(nil).Once()
			},
		},
		{
			name: "storage failure",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, ownerID).Return((*Session)(nil), ErrSessionNotFound).Once()
				ms.On("SetSession", mock.Anything, mock.Anything).Return(errStorageFailure).Once()
			},
			expectedErr: errStorageFailure,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			storage := new(mockStorage)
			tc.setupMocks(storage)

			machine := NewMachine(storage, testLogger())
			wizard := &MovieWizard{}
			wizard.Step = MovieStepVideo

			session, err := machine.Start(ctx, ownerID, wizard)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 0, session.Step())
			}

			storage.AssertExpectations(t)
		})
	}
}

func TestMachine_GetMissing(t *testing.T) {
	machine := NewMachine(NewMemoryStorage(), testLogger())

	session, err := machine.Get(context.Background(), 7)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMachine_UnsavedMutationIsDiscarded(t *testing.T) {
	ctx := context.Background()
	machine := NewMachine(NewMemoryStorage(), testLogger())

	_, err := machine.Start(ctx, 1, &MovieWizard{})
	require.NoError(t, err)

	session, err := machine.Get(ctx, 1)
	require.NoError(t, err)
	wizard := session.Wizard.(*MovieWizard)
	wizard.Code = 120
	wizard.SetStep(int(MovieStepTitle))

	stored, err := machine.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Step())
	assert.Zero(t, stored.Wizard.(*MovieWizard).Code)

	require.NoError(t, machine.Save(ctx, session))

	stored, err = machine.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int(MovieStepTitle), stored.Step())
	assert.Equal(t, 120, stored.Wizard.(*MovieWizard).Code)
}

func TestMachine_Update(t *testing.T) {
	ctx := context.Background()
	machine := NewMachine(NewMemoryStorage(), testLogger())

	err := machine.Update(ctx, 5, func(Wizard) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = machine.Start(ctx, 5, &FieldWizard{})
	require.NoError(t, err)

	failure := errors.New("bad input")
	err = machine.Update(ctx, 5, func(w Wizard) error {
		w.(*FieldWizard).Name = "Kinolar"
		return failure
	})
	assert.ErrorIs(t, err, failure)

	session, err := machine.Get(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, session.Wizard.(*FieldWizard).Name)

	err = machine.Update(ctx, 5, func(w Wizard) error {
		fw := w.(*FieldWizard)
		fw.Name = "Kinolar"
		fw.Step = FieldStepChannelID
		return nil
	})
	require.NoError(t, err)

	session, err = machine.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Kinolar", session.Wizard.(*FieldWizard).Name)
	assert.Equal(t, int(FieldStepChannelID), session.Step())
}

func TestMachine_SetStep(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		step        int
		expectedErr error
	}{
		{name: "valid step", step: int(FieldStepLink)},
		{name: "step beyond wizard", step: int(FieldStepLink) + 1, expectedErr: ErrInvalidTransition},
		{name: "negative step", step: -1, expectedErr: ErrInvalidTransition},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			machine := NewMachine(NewMemoryStorage(), testLogger())
			_, err := machine.Start(ctx, 9, &FieldWizard{})
			require.NoError(t, err)

			err = machine.SetStep(ctx, 9, tc.step)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}

			require.NoError(t, err)
			session, err := machine.Get(ctx, 9)
			require.NoError(t, err)
			assert.Equal(t, tc.step, session.Step())
		})
	}
}

func TestMachine_NextStep(t *testing.T) {
	ctx := context.Background()
	machine := NewMachine(NewMemoryStorage(), testLogger())

	_, err := machine.Start(ctx, 3, &AdminWizard{})
	require.NoError(t, err)

	require.NoError(t, machine.NextStep(ctx, 3))
	assert.ErrorIs(t, machine.NextStep(ctx, 3), ErrInvalidTransition)

	session, err := machine.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int(AdminStepRole), session.Step())
}

func TestMachine_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	machine := NewMachine(NewMemoryStorage(), testLogger())

	_, err := machine.Start(ctx, 11, &DeleteContentWizard{})
	require.NoError(t, err)

	require.NoError(t, machine.Clear(ctx, 11))
	require.NoError(t, machine.Clear(ctx, 11))

	_, err = machine.Get(ctx, 11)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMachine_IdleExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	machine := NewMachine(NewMemoryStorage(), testLogger(), WithIdleTTL(30*time.Minute), WithClock(clock))

	_, err := machine.Start(ctx, 1, &BroadcastWizard{Audience: AudienceAll})
	require.NoError(t, err)
	_, err = machine.Start(ctx, 2, &BroadcastWizard{Audience: AudienceFree})
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	require.NoError(t, machine.Update(ctx, 2, func(Wizard) error { return nil }))

	now = now.Add(15 * time.Minute)

	_, err = machine.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	session, err := machine.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, AudienceFree, session.Wizard.(*BroadcastWizard).Audience)

	all, err := machine.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMachine_TransitionRecorder(t *testing.T) {
	ctx := context.Background()

	var (
		mu          sync.Mutex
		transitions [][2]string
	)
	RegisterTransitionRecorder(func(from, to string) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, [2]string{from, to})
	})
	t.Cleanup(func() { RegisterTransitionRecorder(nil) })

	machine := NewMachine(NewMemoryStorage(), testLogger())
	_, err := machine.Start(ctx, 1, &CardWizard{})
	require.NoError(t, err)
	require.NoError(t, machine.Clear(ctx, 1))

	assert.Equal(t, [][2]string{
		{noState, string(StateEditCardInfo)},
		{string(StateEditCardInfo), noState},
	}, transitions)
}

func TestMachine_LockSerialisesOwner(t *testing.T) {
	ctx := context.Background()
	machine := NewMachine(NewMemoryStorage(), testLogger())

	_, err := machine.Start(ctx, 77, &PricesWizard{})
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			unlock, err := machine.Lock(ctx, 77)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			assert.NoError(t, machine.Update(ctx, 77, func(w Wizard) error {
				w.(*PricesWizard).Prices.Monthly++
				return nil
			}))
		}()
	}
	wg.Wait()

	session, err := machine.Get(ctx, 77)
	require.NoError(t, err)
	assert.EqualValues(t, workers, session.Wizard.(*PricesWizard).Prices.Monthly)
}

func TestMachine_WithRedisStorage(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	machine := NewMachine(
		NewRedisStorage(client, testLogger(), time.Hour),
		testLogger(),
		WithLocker(NewRedisLocker(client, time.Second)),
	)

	_, err := machine.Start(ctx, 100, &SerialWizard{Mode: SerialModeNew})
	require.NoError(t, err)

	unlock, err := machine.Lock(ctx, 100)
	require.NoError(t, err)
	require.NoError(t, machine.Update(ctx, 100, func(w Wizard) error {
		sw := w.(*SerialWizard)
		sw.Episodes = append(sw.Episodes, EpisodeDraft{Number: 1, VideoFileID: "vid-1"})
		sw.Step = SerialStepUploadingEpisodes
		return nil
	}))
	unlock()

	session, err := machine.Get(ctx, 100)
	require.NoError(t, err)
	sw := session.Wizard.(*SerialWizard)
	assert.Equal(t, SerialStepUploadingEpisodes, sw.Step)
	assert.Equal(t, 2, sw.NextEpisodeNumber())
}

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
