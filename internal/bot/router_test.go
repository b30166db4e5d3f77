package bot

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/handlers"
)

func TestCommandName(t *testing.T) {
	tests := map[string]string{
		"/start":            "/start",
		"/start s12":        "/start",
		"/help@kino_uz_bot": "/help",
		"123":               "",
		"🔍 Kino qidirish":    "",
	}
	for text, want := range tests {
		assert.Equal(t, want, commandName(text), text)
	}
}

func newTestRouter() (*Router, *[]string) {
	calls := &[]string{}
	record := func(name string) handlers.Handler {
		return func(telebot.Context) error {
			*calls = append(*calls, name)
			return nil
		}
	}

	r := NewRouter(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.RegisterCommand(CommandStart, record("start"))
	r.RegisterLabel("🔍 Kino qidirish", record("search"))
	r.RegisterCallback("lang", handlers.CallbackHandler(record("lang")))
	r.SetDefault(record("code"))
	r.SetJoinRequest(record("join"))
	return r, calls
}

func TestRouterRoutesMessages(t *testing.T) {
	tests := []struct {
		name   string
		update telebot.Update
		want   string
	}{
		{name: "command", update: telebot.Update{Message: &telebot.Message{Text: "/start 15"}}, want: "start"},
		{name: "addressed command", update: telebot.Update{Message: &telebot.Message{Text: "/start@kino_bot"}}, want: "start"},
		{name: "label", update: telebot.Update{Message: &telebot.Message{Text: "🔍 Kino qidirish"}}, want: "search"},
		{name: "code", update: telebot.Update{Message: &telebot.Message{Text: "123"}}, want: "code"},
		{name: "unknown command falls through", update: telebot.Update{Message: &telebot.Message{Text: "/nope"}}, want: "code"},
		{name: "callback", update: telebot.Update{Callback: &telebot.Callback{Data: "lang:ru"}}, want: "lang"},
		{name: "join request", update: telebot.Update{ChatJoinRequest: &telebot.ChatJoinRequest{}}, want: "join"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, calls := newTestRouter()
			require.NoError(t, r.Route((*telebot.Bot)(nil).NewContext(tt.update)))
			assert.Equal(t, []string{tt.want}, *calls)
		})
	}
}

func TestRouterAppliesMiddlewaresInOrder(t *testing.T) {
	r, calls := newTestRouter()

	trace := func(name string) handlers.Middleware {
		return func(next handlers.Handler) handlers.Handler {
			return func(c telebot.Context) error {
				*calls = append(*calls, name)
				return next(c)
			}
		}
	}
	r.Use(trace("outer"))
	r.Use(trace("inner"))

	require.NoError(t, r.Route((*telebot.Bot)(nil).NewContext(telebot.Update{Message: &telebot.Message{Text: "42"}})))
	assert.Equal(t, []string{"outer", "inner", "code"}, *calls)
}

func TestInputFromMessage(t *testing.T) {
	msg := &telebot.Message{
		ID:      5,
		Caption: "Avatar",
		Photo:   &telebot.Photo{File: telebot.File{FileID: "photo-id"}},
		Video:   &telebot.Video{File: telebot.File{FileID: "video-id"}},
	}

	in := InputFromMessage(7, msg)
	assert.Equal(t, int64(7), in.OwnerID)
	assert.Equal(t, 5, in.MessageID)
	assert.Equal(t, "Avatar", in.Caption)
	assert.Equal(t, "photo-id", in.PhotoID)
	assert.Equal(t, "video-id", in.VideoID)
}
