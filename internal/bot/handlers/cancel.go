package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
)

// NewBackHandler returns an idle sender to their main menu. Active wizards
// never reach it: the wizard dispatcher sees their input first.
func NewBackHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		if admin := AdminFrom(c); admin != nil {
			return d.reply(c, "🏠 Asosiy menyu", keyboard.AdminMenu(admin))
		}
		return d.reply(c, "🏠", keyboard.UserMenu(TranslatorFrom(c), premium(UserFrom(c))))
	}
}
