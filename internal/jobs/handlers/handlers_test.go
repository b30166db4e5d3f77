package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/jobs"
	"github.com/Proton-105/kino-bot/internal/wizard"
)

type fakeExpirer struct {
	users []domain.User
	err   error
}

func (f *fakeExpirer) ExpirePremiums(context.Context) ([]domain.User, error) {
	return f.users, f.err
}

type sentMessage struct {
	to   wizard.Chat
	text string
}

type fakeMessenger struct {
	wizard.Messenger
	sent []sentMessage
}

func (f *fakeMessenger) Send(_ context.Context, to wizard.Chat, text string, _ *keyboard.Markup) (int, error) {
	f.sent = append(f.sent, sentMessage{to: to, text: text})
	return len(f.sent), nil
}

type fakeSweeper struct {
	cleared int
	err     error
}

func (f *fakeSweeper) Sweep(context.Context) (int, error) { return f.cleared, f.err }

type fakePruner struct{ calls int }

func (f *fakePruner) PruneRequests(context.Context) (int, error) {
	f.calls++
	return 2, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPremiumExpiryHandler(t *testing.T) {
	locales, err := i18n.Load("", "uz")
	require.NoError(t, err)

	expired := []domain.User{
		{TelegramID: 10, LanguageCode: "uz"},
		{TelegramID: 20, LanguageCode: "ru"},
	}

	tests := []struct {
		name      string
		notify    bool
		wantSends int
	}{
		{name: "notifies users", notify: true, wantSends: 2},
		{name: "silent", notify: false, wantSends: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &fakeMessenger{}
			h := NewPremiumExpiryHandler(&fakeExpirer{users: expired}, msg, locales, discardLogger())

			task, err := jobs.NewPremiumExpiryTask(tt.notify)
			require.NoError(t, err)

			require.NoError(t, h.ProcessTask(context.Background(), task))
			require.Len(t, msg.sent, tt.wantSends)
			if tt.wantSends > 0 {
				assert.Equal(t, wizard.UserChat(10), msg.sent[0].to)
				assert.Equal(t, "⌛️ Premium obunangiz muddati tugadi.", msg.sent[0].text)
				assert.Equal(t, "⌛️ Срок премиума истёк.", msg.sent[1].text)
			}
		})
	}
}

func TestPremiumExpiryHandlerErrors(t *testing.T) {
	boom := errors.New("db down")
	h := NewPremiumExpiryHandler(&fakeExpirer{err: boom}, &fakeMessenger{}, nil, discardLogger())

	err := h.ProcessTask(context.Background(), asynq.NewTask(jobs.TaskTypePremiumExpiry, nil))
	assert.ErrorIs(t, err, boom)

	bad := asynq.NewTask(jobs.TaskTypePremiumExpiry, []byte("{"))
	assert.Error(t, h.ProcessTask(context.Background(), bad))
}

func TestSessionCleanupHandler(t *testing.T) {
	h := NewSessionCleanupHandler(&fakeSweeper{cleared: 3}, discardLogger())
	task, err := jobs.NewSessionCleanupTask()
	require.NoError(t, err)
	assert.NoError(t, h.ProcessTask(context.Background(), task))

	boom := errors.New("redis down")
	h = NewSessionCleanupHandler(&fakeSweeper{err: boom}, discardLogger())
	assert.ErrorIs(t, h.ProcessTask(context.Background(), task), boom)
}

func TestJoinCachePruneHandler(t *testing.T) {
	pruner := &fakePruner{}
	h := NewJoinCachePruneHandler(pruner, discardLogger())

	require.NoError(t, h.ProcessTask(context.Background(), jobs.NewJoinCachePruneTask()))
	assert.Equal(t, 1, pruner.calls)
}
