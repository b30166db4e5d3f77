package wizard

import (
	"context"
	"strconv"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
)

// Chat addresses a Telegram chat: a numeric id ("123", "-100123") or a
// public "@username".
type Chat string

// UserChat addresses the private chat with a user.
func UserChat(id int64) Chat {
	return Chat(strconv.FormatInt(id, 10))
}

// ChatInfo describes a chat returned by a lookup.
type ChatInfo struct {
	ID       string
	Title    string
	Username string
	Type     string
}

// Link returns the public link of the chat when it has a username.
func (c ChatInfo) Link() string {
	if c.Username == "" {
		return ""
	}
	return "https://t.me/" + c.Username
}

// Messenger is the part of the Telegram API the wizards use.
type Messenger interface {
	Send(ctx context.Context, to Chat, text string, markup *keyboard.Markup) (int, error)
	SendPhoto(ctx context.Context, to Chat, fileID, caption string, markup *keyboard.Markup) (int, error)
	SendVideo(ctx context.Context, to Chat, fileID, caption string, markup *keyboard.Markup) (int, error)
	Copy(ctx context.Context, to, from Chat, messageID int, markup *keyboard.Markup) (int, error)
	Edit(ctx context.Context, chat Chat, messageID int, text string) error
	ChatInfo(ctx context.Context, chat Chat) (ChatInfo, error)
	// BotStatus returns the bot's own member status in chat.
	BotStatus(ctx context.Context, chat Chat) (string, error)
	BotUsername() string
}

// DeepLink builds the start link that opens content in the bot.
func DeepLink(botUsername, payload string) string {
	return "https://t.me/" + botUsername + "?start=" + payload
}
