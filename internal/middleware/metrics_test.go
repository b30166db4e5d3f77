package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	telebot "gopkg.in/telebot.v3"
)

func TestActionName(t *testing.T) {
	tests := []struct {
		name   string
		update telebot.Update
		want   string
	}{
		{name: "command", update: telebot.Update{Message: &telebot.Message{Text: "/start 42"}}, want: "/start"},
		{name: "command with bot", update: telebot.Update{Message: &telebot.Message{Text: "/help@kino_bot"}}, want: "/help"},
		{name: "plain text", update: telebot.Update{Message: &telebot.Message{Text: "123"}}, want: "text"},
		{name: "photo", update: telebot.Update{Message: &telebot.Message{Photo: &telebot.Photo{}}}, want: "photo"},
		{name: "callback", update: telebot.Update{Callback: &telebot.Callback{Data: "pay_ok:7"}}, want: "cb:pay_ok"},
		{name: "join request", update: telebot.Update{ChatJoinRequest: &telebot.ChatJoinRequest{}}, want: "join_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := (*telebot.Bot)(nil).NewContext(tt.update)
			assert.Equal(t, tt.want, ActionName(c))
		})
	}
}
