package handlers

import (
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/state"
)

// NewPremiumHandler shows the premium plans with their prices.
func NewPremiumHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		u := UserFrom(c)
		switch {
		case premium(u):
			until := "∞"
			if u.PremiumExpiresAt != nil {
				until = u.PremiumExpiresAt.Format("02.01.2006")
			}
			return d.reply(c, T(c, "premium.already", map[string]any{"Until": until}), nil)
		case u != nil && u.IsPremiumBanned:
			return d.reply(c, T(c, "premium.banned", nil), nil)
		}

		settings, err := d.Settings.Settings(Ctx(c))
		if err != nil {
			return err
		}

		lang := langOf(c)
		kb := keyboard.NewInlineKeyboard()
		for _, plan := range settings.Prices.Plans() {
			if plan.Price <= 0 {
				continue
			}
			kb.AddRow(keyboard.InlineButton{
				Text:   T(c, "premium.plan", map[string]any{"Months": plan.Months, "Price": i18n.Amount(lang, plan.Price)}),
				Unique: keyboard.CbBuyPremium,
				Data:   strconv.Itoa(plan.Months),
			})
		}

		markup, err := kb.Build()
		if err != nil {
			return err
		}
		return d.reply(c, T(c, "premium.choose_plan", nil), markup)
	}
}

// NewBuyPremiumHandler starts the receipt upload for the chosen plan.
func NewBuyPremiumHandler(d Deps) CallbackHandler {
	return func(c telebot.Context) error {
		d.answer(c, "", false)

		u := UserFrom(c)
		if u != nil && u.IsPremiumBanned {
			return d.reply(c, T(c, "premium.banned", nil), nil)
		}

		_, data := callbackData(c)
		months, err := strconv.Atoi(data)
		if err != nil {
			return nil
		}

		settings, err := d.Settings.Settings(Ctx(c))
		if err != nil {
			return err
		}
		plan, ok := settings.Prices.PlanByMonths(months)
		if !ok || plan.Price <= 0 {
			return apperrors.NewValidationError("❌ Tarif topilmadi.")
		}

		return d.Wizards.Begin(Ctx(c), SenderID(c), nil, TranslatorFrom(c), &state.ReceiptWizard{
			Months:       plan.Months,
			DurationDays: plan.Days,
			Amount:       plan.Price,
		})
	}
}

func langOf(c telebot.Context) string {
	if t := TranslatorFrom(c); t != nil {
		return t.Lang()
	}
	return i18n.DefaultLang
}
