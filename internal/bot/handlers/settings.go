package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
)

// NewLanguageHandler offers the supported interface languages.
func NewLanguageHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		return d.reply(c, T(c, "start.choose_language", nil), keyboard.LanguageMenu())
	}
}

// NewSetLanguageHandler stores the picked language and redraws the menu in it.
func NewSetLanguageHandler(d Deps) CallbackHandler {
	return func(c telebot.Context) error {
		_, lang := callbackData(c)
		if err := d.Users.SetLanguage(Ctx(c), SenderID(c), lang); err != nil {
			d.answer(c, "", false)
			return err
		}

		t := d.Locales.Translator(lang)
		SetTranslator(c, t)
		if u := UserFrom(c); u != nil {
			u.LanguageCode = t.Lang()
		}

		d.answer(c, t.T("start.language_saved"), false)
		if err := c.Delete(); err != nil {
			d.logger().Debug("failed to delete language picker", "error", err)
		}

		if admin := AdminFrom(c); admin != nil {
			return d.reply(c, t.T("start.language_saved"), keyboard.AdminMenu(admin))
		}
		return d.reply(c, t.T("start.language_saved"), keyboard.UserMenu(t, premium(UserFrom(c))))
	}
}
