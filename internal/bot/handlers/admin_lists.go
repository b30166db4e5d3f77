package handlers

import (
	"fmt"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/state"
	"github.com/Proton-105/kino-bot/internal/wizard"
)

const (
	usersPerPage    = 10
	channelsPerPage = 10
	paymentsListed  = 20
)

func (d Deps) listFields(c telebot.Context) error {
	fields, err := d.Fields.ListFields(Ctx(c))
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return d.reply(c, "📭 Fieldlar yo'q.", keyboard.FieldsMenu())
	}

	var b strings.Builder
	b.WriteString("📋 Fieldlar ro'yxati:\n")
	kb := keyboard.NewInlineKeyboard()
	for i, f := range fields {
		fmt.Fprintf(&b, "\n%d. %s\n   🆔 %s\n   🔗 %s\n", i+1, f.Name, f.ChannelID, f.Link())
		kb.AddRow(keyboard.InlineButton{Text: "🗑 " + f.Name, Unique: keyboard.CbDeleteField, Data: keyboard.IDPayload(f.ID)})
	}

	markup, err := kb.Build()
	if err != nil {
		return err
	}
	return d.reply(c, b.String(), markup)
}

func (d Deps) listMandatory(c telebot.Context) error {
	channels, err := d.Channels.ListAll(Ctx(c))
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return d.reply(c, "📭 Majburiy kanallar yo'q.", keyboard.MandatoryMenu())
	}

	for _, ch := range channels {
		markup := keyboard.NewInlineKeyboard().AddRow(
			keyboard.InlineButton{Text: "⬆️", Unique: keyboard.CbMoveChannel, Data: movePayload(ch.ID, -1)},
			keyboard.InlineButton{Text: "⬇️", Unique: keyboard.CbMoveChannel, Data: movePayload(ch.ID, 1)},
		)
		if ch.IsActive {
			markup.AddRow(keyboard.InlineButton{Text: "🗑 O'chirish", Unique: keyboard.CbDeleteMandatory, Data: keyboard.IDPayload(ch.ID)})
		}
		built, err := markup.Build()
		if err != nil {
			return err
		}
		if err := d.reply(c, wizard.FormatMandatoryChannel(ch), built); err != nil {
			return err
		}
	}
	return nil
}

func movePayload(id int64, delta int) string {
	return keyboard.IDPayload(id) + keyboard.CallbackDataSeparator + strconv.Itoa(delta)
}

func parseMovePayload(data string) (int64, int, bool) {
	idPart, deltaPart, ok := strings.Cut(data, keyboard.CallbackDataSeparator)
	if !ok {
		return 0, 0, false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	delta, err := strconv.Atoi(deltaPart)
	if err != nil || (delta != 1 && delta != -1) {
		return 0, 0, false
	}
	return id, delta, true
}

// channelHistoryPage lists channels that ever had members, newest limits first.
func (d Deps) channelHistoryPage(page int) Handler {
	return func(c telebot.Context) error {
		channels, err := d.Channels.ListWithHistory(Ctx(c))
		if err != nil {
			return err
		}
		if len(channels) == 0 {
			return d.reply(c, "📭 Tarix bo'sh.", nil)
		}

		window := keyboard.NewPage(page, len(channels), channelsPerPage)
		start, end := window.Bounds(len(channels))

		var b strings.Builder
		b.WriteString("📊 Kanallar tarixi:\n")
		for i, ch := range channels[start:end] {
			status := "✅"
			if !ch.IsActive {
				status = "❌"
			}
			limit := "♾️"
			if ch.MemberLimit != nil {
				limit = strconv.Itoa(*ch.MemberLimit)
			}
			fmt.Fprintf(&b, "\n%d. %s %s\n   👥 %d / %s\n", start+i+1, status, ch.ChannelName, ch.CurrentMembers, limit)
		}

		markup, err := keyboard.NewInlineKeyboard().
			AddRow(window.Buttons(TranslatorFrom(c), keyboard.CbChannelsPage)...).
			Build()
		if err != nil {
			return err
		}
		return d.reply(c, b.String(), markup)
	}
}

func (d Deps) listDatabase(c telebot.Context) error {
	channels, err := d.Channels.ActiveDatabaseChannels(Ctx(c))
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return d.reply(c, "📭 Database kanallar yo'q.", keyboard.DatabaseMenu())
	}

	var b strings.Builder
	b.WriteString("💾 Database kanallar:\n")
	kb := keyboard.NewInlineKeyboard()
	for i, ch := range channels {
		fmt.Fprintf(&b, "\n%d. %s\n   🆔 %s\n", i+1, ch.ChannelName, ch.ChannelID)
		kb.AddRow(keyboard.InlineButton{Text: "🗑 " + ch.ChannelName, Unique: keyboard.CbDeleteDatabase, Data: keyboard.IDPayload(ch.ID)})
	}

	markup, err := kb.Build()
	if err != nil {
		return err
	}
	if err := d.reply(c, b.String(), markup); err != nil {
		return err
	}
	return d.reply(c, "💾 Database kanallar menyusi", keyboard.DatabaseMenu())
}

func (d Deps) pendingPayments(c telebot.Context) error {
	payments, err := d.Payments.Pending(Ctx(c), paymentsListed)
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		return d.reply(c, "📭 Yangi to'lovlar yo'q.", nil)
	}

	for _, p := range payments {
		if _, err := d.Messenger.SendPhoto(Ctx(c), chatOf(c), p.ReceiptFileID, wizard.PaymentCaption(p), wizard.PaymentReviewMarkup(p.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (d Deps) paymentsByStatus(status domain.PaymentStatus) Handler {
	return func(c telebot.Context) error {
		payments, err := d.Payments.ByStatus(Ctx(c), status, paymentsListed)
		if err != nil {
			return err
		}
		if len(payments) == 0 {
			return d.reply(c, "📭 To'lovlar yo'q.", nil)
		}

		var b strings.Builder
		title := "✅ Tasdiqlangan to'lovlar:"
		if status == domain.PaymentRejected {
			title = "❌ Rad etilgan to'lovlar:"
		}
		b.WriteString(title + "\n")
		for _, p := range payments {
			fmt.Fprintf(&b, "\n#%d • %s (%d)\n   💰 %s so'm • %d kun", p.ID, p.UserFirstName, p.UserTelegramID, i18n.Amount("uz", p.Amount), p.DurationDays)
			if p.ProcessedAt != nil {
				fmt.Fprintf(&b, " • %s", p.ProcessedAt.Format("02.01.2006"))
			}
			if p.RejectionReason != "" {
				fmt.Fprintf(&b, "\n   📝 %s", p.RejectionReason)
			}
			b.WriteString("\n")
		}
		return d.reply(c, b.String(), nil)
	}
}

func (d Deps) paymentStatistics(c telebot.Context) error {
	stats, err := d.Payments.Statistics(Ctx(c))
	if err != nil {
		return err
	}
	return d.reply(c, FormatPaymentStatistics(stats), nil)
}

// FormatPaymentStatistics renders payment counters for admins.
func FormatPaymentStatistics(s domain.PaymentStatistics) string {
	return fmt.Sprintf("📊 To'lov statistikasi\n\n📥 Jami: %d\n✅ Tasdiqlangan: %d\n❌ Rad etilgan: %d\n⏳ Kutilmoqda: %d\n💰 Daromad: %s so'm",
		s.TotalPayments, s.ApprovedCount, s.RejectedCount, s.PendingCount, i18n.Amount("uz", s.TotalRevenue))
}

func (d Deps) premiumBanned(c telebot.Context) error {
	users, err := d.Users.ListPremiumBanned(Ctx(c))
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return d.reply(c, "📭 Premiumdan chetlatilgan foydalanuvchilar yo'q.", nil)
	}

	var b strings.Builder
	b.WriteString("🚫 Premiumdan chetlatilganlar:\n")
	for i, u := range users {
		fmt.Fprintf(&b, "\n%d. %s (ID: %d) • rad etishlar: %d", i+1, u.DisplayName(), u.TelegramID, u.PremiumBanCount)
	}
	return d.reply(c, b.String(), keyboard.PaymentsMenu())
}

func (d Deps) usersPage(page int) Handler {
	return func(c telebot.Context) error {
		users, total, err := d.Users.Page(Ctx(c), max(page, 1)-1, usersPerPage)
		if err != nil {
			return err
		}

		window := keyboard.NewPage(page, total, usersPerPage)
		if window.Number != max(page, 1) {
			// The list shrank since the buttons were drawn.
			if users, _, err = d.Users.Page(Ctx(c), window.Number-1, usersPerPage); err != nil {
				return err
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "👥 Foydalanuvchilar (%d):\n", total)
		for i, u := range users {
			flags := ""
			if u.IsPremium {
				flags += " 💎"
			}
			if u.IsBlocked {
				flags += " 🚫"
			}
			username := ""
			if u.Username != "" {
				username = " @" + u.Username
			}
			fmt.Fprintf(&b, "\n%d. %s%s (ID: %d)%s", window.Offset()+i+1, u.DisplayName(), username, u.TelegramID, flags)
		}

		markup, err := keyboard.NewInlineKeyboard().
			AddRow(window.Buttons(TranslatorFrom(c), keyboard.CbUsersPage)...).
			Build()
		if err != nil {
			return err
		}
		if err := d.reply(c, b.String(), markup); err != nil {
			return err
		}
		if c.Callback() == nil {
			return d.reply(c, "👥 Foydalanuvchilar menyusi", keyboard.UsersMenu())
		}
		return nil
	}
}

func (d Deps) statistics(c telebot.Context) error {
	ctx := Ctx(c)
	users, err := d.Users.Statistics(ctx)
	if err != nil {
		return err
	}
	movies, serials, err := d.Content.Counts(ctx)
	if err != nil {
		return err
	}
	payments, err := d.Payments.Statistics(ctx)
	if err != nil {
		return err
	}
	return d.reply(c, FormatStatistics(users, movies, serials, payments), nil)
}

// FormatStatistics renders the admin dashboard.
func FormatStatistics(u domain.UserStatistics, movies, serials int, p domain.PaymentStatistics) string {
	return fmt.Sprintf("📊 Statistika\n\n"+
		"👥 Foydalanuvchilar: %d\n💎 Premium: %d\n🚫 Bloklangan: %d\n🟢 Faol (24 soat): %d\n🆕 Yangi (24 soat): %d\n\n"+
		"🎬 Kinolar: %d\n📺 Seriallar: %d\n\n"+
		"💳 To'lovlar: %d (✅ %d, ❌ %d, ⏳ %d)\n💰 Daromad: %s so'm",
		u.TotalUsers, u.PremiumUsers, u.BlockedUsers, u.ActiveUsers, u.NewUsers,
		movies, serials,
		p.TotalPayments, p.ApprovedCount, p.RejectedCount, p.PendingCount, i18n.Amount("uz", p.TotalRevenue))
}

func (d Deps) broadcastMenu(c telebot.Context) error {
	kb := keyboard.NewInlineKeyboard()
	for _, audience := range []state.Audience{
		state.AudienceAll,
		state.AudiencePremium,
		state.AudienceFree,
		state.AudienceTelegramPremium,
	} {
		kb.AddRow(keyboard.InlineButton{Text: wizard.AudienceName(audience), Unique: keyboard.CbBroadcastAudience, Data: string(audience)})
	}
	kb.AddRow(keyboard.InlineButton{Text: "🎬 Premyera e'loni", Unique: keyboard.CbPremiere})

	markup, err := kb.Build()
	if err != nil {
		return err
	}
	return d.reply(c, "📣 Kimga yuboramiz?", markup)
}

func (d Deps) listAdmins(c telebot.Context) error {
	admins, err := d.Admins.ListAdmins(Ctx(c))
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("👥 Adminlar:\n")
	kb := keyboard.NewInlineKeyboard()
	for i, a := range admins {
		name := strconv.FormatInt(a.TelegramID, 10)
		if a.Username != "" {
			name = "@" + a.Username
		}
		fmt.Fprintf(&b, "\n%d. %s • %s", i+1, name, a.Role)
		if a.CanDeleteContent && a.Role != domain.RoleSuperAdmin {
			b.WriteString(" • 🗑")
		}
		if a.Role != domain.RoleSuperAdmin {
			kb.AddRow(keyboard.InlineButton{Text: "❌ " + name, Unique: keyboard.CbDeleteAdmin, Data: keyboard.IDPayload(a.TelegramID)})
		}
	}
	kb.AddRow(keyboard.InlineButton{Text: "➕ Admin qo'shish", Unique: keyboard.CbAddAdmin})

	markup, err := kb.Build()
	if err != nil {
		return err
	}
	return d.reply(c, b.String(), markup)
}

func (d Deps) showSettings(c telebot.Context) error {
	s, err := d.Settings.Settings(Ctx(c))
	if err != nil {
		return err
	}

	card := s.Card.Number
	if len(card) == 16 {
		card = card[:4] + " **** **** " + card[12:]
	}

	text := fmt.Sprintf("⚙️ Sozlamalar\n\n💎 Narxlar:\n%s\n\n💳 Karta: %s\n👤 Egasi: %s\n\n📞 Aloqa xabari:\n%s",
		wizard.FormatPrices(s.Prices), orDash(card), orDash(s.Card.Holder), orDash(s.ContactMessage))

	markup := keyboard.NewInlineKeyboard().
		AddRow(keyboard.InlineButton{Text: "💎 Narxlarni o'zgartirish", Unique: keyboard.CbEditPrices}).
		AddRow(keyboard.InlineButton{Text: "💳 Kartani o'zgartirish", Unique: keyboard.CbEditCard}).
		AddRow(keyboard.InlineButton{Text: "📞 Aloqa xabarini o'zgartirish", Unique: keyboard.CbEditContact}).
		MustBuild()
	return d.reply(c, text, markup)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

