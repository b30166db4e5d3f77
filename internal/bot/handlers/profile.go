package handlers

import (
	"strings"

	telebot "gopkg.in/telebot.v3"
)

// NewProfileHandler shows the sender's id, name and premium status.
func NewProfileHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		u := UserFrom(c)
		if u == nil {
			return nil
		}

		status := T(c, "profile.premium_none", nil)
		if premium(u) {
			status = "∞"
			if u.PremiumExpiresAt != nil {
				status = T(c, "profile.premium_until", map[string]any{"Until": u.PremiumExpiresAt.Format("02.01.2006")})
			}
		}

		return d.reply(c, T(c, "profile.info", map[string]any{
			"ID":      u.TelegramID,
			"Name":    u.DisplayName(),
			"Premium": status,
		}), nil)
	}
}

// NewAboutHandler shows the about text configured by admins.
func NewAboutHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		settings, err := d.Settings.Settings(Ctx(c))
		if err != nil {
			return err
		}
		text := strings.TrimSpace(settings.AboutBot)
		if text == "" {
			text = T(c, "about.default", nil)
		}
		return d.reply(c, text, nil)
	}
}

// NewContactHandler shows the contact message or the support username.
func NewContactHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		settings, err := d.Settings.Settings(Ctx(c))
		if err != nil {
			return err
		}
		text := strings.TrimSpace(settings.ContactMessage)
		if text == "" {
			support := settings.SupportUsername
			if support != "" && !strings.HasPrefix(support, "@") {
				support = "@" + support
			}
			text = T(c, "contact.default", map[string]any{"Support": support})
		}
		return d.reply(c, text, nil)
	}
}
