package handlers

import (
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/wizard"
)

// chatOf returns the chat an update arrived in, falling back to the sender.
func chatOf(c telebot.Context) wizard.Chat {
	if chat := c.Chat(); chat != nil {
		return wizard.Chat(strconv.FormatInt(chat.ID, 10))
	}
	return wizard.UserChat(SenderID(c))
}

// reply sends text with markup to the chat of the update.
func (d Deps) reply(c telebot.Context, text string, markup *keyboard.Markup) error {
	_, err := d.Messenger.Send(Ctx(c), chatOf(c), text, markup)
	return err
}

// answer acknowledges a callback query. Telegram drops the spinner only
// after an answer, so failures are logged and otherwise ignored.
func (d Deps) answer(c telebot.Context, text string, alert bool) {
	if c.Callback() == nil {
		return
	}
	if err := c.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: alert}); err != nil {
		d.logger().Debug("failed to answer callback", "error", err)
	}
}

// callbackData returns the payload of the pressed button.
func callbackData(c telebot.Context) (string, string) {
	cb := c.Callback()
	if cb == nil {
		return "", ""
	}
	unique, data, err := keyboard.DecodeCallback(cb.Data)
	if err != nil {
		return "", ""
	}
	return unique, data
}

// callbackID decodes a callback whose payload is a numeric id.
func callbackID(c telebot.Context) (int64, bool) {
	cb := c.Callback()
	if cb == nil {
		return 0, false
	}
	_, id, err := keyboard.DecodeID(cb.Data)
	return id, err == nil
}
