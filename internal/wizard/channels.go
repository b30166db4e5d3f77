package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/state"
)

const (
	msgChannelIDFormat = "❌ Kanal ID \"-\" bilan boshlanishi kerak!\nMasalan: -1001234567890"
	msgLinkFormat      = "❌ Link https://t.me/ bilan boshlanishi kerak!"
	msgBotNotAdmin     = "❌ Bot kanalda admin emas!\n\nBotni kanalga admin qilib, qaytadan urinib ko'ring."
	msgChannelMissing  = "❌ Kanal topilmadi!\n\nID yoki linkni tekshirib, qaytadan yuboring."
	telegramLinkPrefix = "https://t.me/"
)

// botIsAdmin reports whether the bot administers chat.
func botIsAdmin(ctx context.Context, fc *FlowContext, chat Chat) (bool, error) {
	status, err := fc.Messenger().BotStatus(ctx, chat)
	if err != nil {
		return false, apperrors.NewValidationError(msgChannelMissing)
	}
	return status == "administrator" || status == "creator", nil
}

func channelID(text string) (string, error) {
	id := strings.TrimSpace(text)
	if !strings.HasPrefix(id, "-") || len(id) < 2 {
		return "", apperrors.NewValidationError(msgChannelIDFormat)
	}
	return id, nil
}

type fieldFlow struct{}

func (fieldFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "📁 Yangi field qo'shish\n\n📝 Field nomini kiriting:", keyboard.Cancel())
}

func (fieldFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.FieldWizard)

	switch w.Step {
	case state.FieldStepName:
		name, err := requireText(fc.Input)
		if err != nil {
			return Stay, err
		}
		w.Name = name
		return fc.Next(ctx, int(state.FieldStepChannelID), "🔢 Field kanal ID sini kiriting:\nMasalan: -1001234567890", nil)

	case state.FieldStepChannelID:
		id, err := channelID(fc.Input.Text)
		if err != nil {
			return Stay, err
		}
		w.ChannelID = id
		return fc.Next(ctx, int(state.FieldStepLink), "🔗 Kanal linkini kiriting:\nMasalan: https://t.me/kanal", nil)

	case state.FieldStepLink:
		link := strings.TrimSpace(fc.Input.Text)
		if !strings.HasPrefix(link, telegramLinkPrefix) && !strings.HasPrefix(link, "@") {
			return Stay, apperrors.NewValidationError(msgLinkFormat)
		}
		field, err := fc.Deps().Fields.CreateField(ctx, domain.Field{Name: w.Name, ChannelID: w.ChannelID, ChannelLink: link, IsActive: true})
		if err != nil {
			return Stay, err
		}
		return fc.Done(ctx, fmt.Sprintf("✅ Field qo'shildi!\n\n📁 %s\n🔢 %s\n🔗 %s", field.Name, field.ChannelID, field.Link()))
	}

	return Stay, nil
}

type databaseChannelFlow struct{}

func (databaseChannelFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "💾 Database kanal qo'shish\n\n🔢 Kanal ID sini yuboring:\nMasalan: -1001234567890\n\n⚠️ Bot kanalda admin bo'lishi kerak!", keyboard.Cancel())
}

func (databaseChannelFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	id, err := channelID(fc.Input.Text)
	if err != nil {
		return Stay, err
	}

	info, err := fc.Messenger().ChatInfo(ctx, Chat(id))
	if err != nil {
		return Stay, apperrors.NewValidationError(msgChannelMissing)
	}
	admin, err := botIsAdmin(ctx, fc, Chat(id))
	if err != nil {
		return Stay, err
	}
	if !admin {
		return Stay, apperrors.NewValidationError(msgBotNotAdmin)
	}

	ch, err := fc.Deps().Channels.CreateDatabaseChannel(ctx, domain.DatabaseChannel{
		ChannelID:   id,
		ChannelName: info.Title,
		ChannelLink: info.Link(),
		IsActive:    true,
	})
	if err != nil {
		return Stay, err
	}

	return fc.Done(ctx, fmt.Sprintf("✅ Database kanal qo'shildi!\n\n📢 %s\n🔢 %s", ch.ChannelName, ch.ChannelID))
}

type mandatoryChannelFlow struct{}

func (mandatoryChannelFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "📢 Majburiy kanal qo'shish\n\nKanal turini tanlang:", keyboard.WithCancel(
		[]string{keyboard.BtnPublicChannel, keyboard.BtnPrivateChannel},
		[]string{keyboard.BtnExternalChannel},
	))
}

func (mandatoryChannelFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.MandatoryChannelWizard)
	text := strings.TrimSpace(fc.Input.Text)

	switch w.Step {
	case state.MandatoryChannelStepType:
		switch text {
		case keyboard.BtnPublicChannel:
			w.Type = domain.ChannelPublic
		case keyboard.BtnPrivateChannel:
			w.Type = domain.ChannelPrivate
		case keyboard.BtnExternalChannel:
			w.Type = domain.ChannelExternal
			return fc.Next(ctx, int(state.MandatoryChannelStepLimitOrName), "📝 Kanal yoki sahifa nomini kiriting:", nil)
		default:
			return Stay, apperrors.NewValidationError("❌ Iltimos, kanal turini tugmalardan tanlang!")
		}
		return fc.Next(ctx, int(state.MandatoryChannelStepLink), "🔗 Kanal linkini yuboring:\nMasalan: https://t.me/kanal", nil)

	case state.MandatoryChannelStepLink:
		if w.AwaitingPrivateID {
			return privateChannelID(ctx, fc, w, text)
		}
		if !strings.HasPrefix(text, telegramLinkPrefix) {
			return Stay, apperrors.NewValidationError(msgLinkFormat)
		}
		if domain.IsInviteLink(text) {
			w.ChannelLink = text
			w.AwaitingPrivateID = true
			if err := fc.Reply(ctx, "🔢 Endi kanal ID sini yuboring:\nMasalan: -1001234567890", keyboard.Cancel()); err != nil {
				return Stay, err
			}
			return Save, nil
		}
		return publicChannel(ctx, fc, w, text)

	case state.MandatoryChannelStepLimitOrName:
		if w.Type == domain.ChannelExternal {
			name, err := requireText(fc.Input)
			if err != nil {
				return Stay, err
			}
			w.ChannelName = name
			return fc.Next(ctx, int(state.MandatoryChannelStepLimitOrLink), "🔗 Linkni yuboring:\nMasalan: https://instagram.com/sahifa", nil)
		}
		switch text {
		case keyboard.BtnUnlimited:
			return createMandatory(ctx, fc, w, nil)
		case keyboard.BtnLimited:
			return fc.Next(ctx, int(state.MandatoryChannelStepLimitOrLink), "🔢 A'zolar limitini kiriting:", nil)
		default:
			return Stay, apperrors.NewValidationError("❌ Iltimos, tugmalardan birini tanlang!")
		}

	case state.MandatoryChannelStepLimitOrLink:
		if w.Type == domain.ChannelExternal {
			if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
				return Stay, apperrors.NewValidationError("❌ Link http:// yoki https:// bilan boshlanishi kerak!")
			}
			w.ChannelID = text
			w.ChannelLink = text
			return createMandatory(ctx, fc, w, nil)
		}
		limit, err := parsePositive(text, msgPositiveRequired)
		if err != nil {
			return Stay, err
		}
		value := int(limit)
		return createMandatory(ctx, fc, w, &value)
	}

	return Stay, nil
}

func limitMarkup() *keyboard.Markup {
	return keyboard.WithCancel([]string{keyboard.BtnUnlimited, keyboard.BtnLimited})
}

func publicChannel(ctx context.Context, fc *FlowContext, w *state.MandatoryChannelWizard, link string) (Outcome, error) {
	username := strings.Trim(strings.TrimPrefix(link, telegramLinkPrefix), "/")
	if username == "" {
		return Stay, apperrors.NewValidationError(msgLinkFormat)
	}
	chat := Chat("@" + username)

	info, err := fc.Messenger().ChatInfo(ctx, chat)
	if err != nil {
		return Stay, apperrors.NewValidationError(msgChannelMissing)
	}
	admin, err := botIsAdmin(ctx, fc, chat)
	if err != nil {
		return Stay, err
	}
	if !admin {
		return Stay, apperrors.NewValidationError(msgBotNotAdmin)
	}

	w.ChannelID = info.ID
	w.ChannelName = info.Title
	w.ChannelLink = link
	return fc.Next(ctx, int(state.MandatoryChannelStepLimitOrName),
		fmt.Sprintf("✅ Kanal topildi: %s\n\nA'zolar limitini tanlang:", info.Title), limitMarkup())
}

func privateChannelID(ctx context.Context, fc *FlowContext, w *state.MandatoryChannelWizard, text string) (Outcome, error) {
	id, err := channelID(text)
	if err != nil {
		return Stay, err
	}

	info, err := fc.Messenger().ChatInfo(ctx, Chat(id))
	if err != nil {
		return Stay, apperrors.NewValidationError(msgChannelMissing)
	}
	admin, err := botIsAdmin(ctx, fc, Chat(id))
	if err != nil {
		return Stay, err
	}
	if !admin {
		return Stay, apperrors.NewValidationError(msgBotNotAdmin)
	}

	w.ChannelID = id
	w.ChannelName = info.Title
	w.AwaitingPrivateID = false
	return fc.Next(ctx, int(state.MandatoryChannelStepLimitOrName),
		fmt.Sprintf("✅ Kanal topildi: %s\n\nA'zolar limitini tanlang:", info.Title), limitMarkup())
}

func createMandatory(ctx context.Context, fc *FlowContext, w *state.MandatoryChannelWizard, limit *int) (Outcome, error) {
	ch, err := fc.Deps().Channels.CreateMandatoryChannel(ctx, domain.MandatoryChannel{
		ChannelID:   w.ChannelID,
		ChannelName: w.ChannelName,
		ChannelLink: w.ChannelLink,
		Type:        w.Type,
		IsActive:    true,
		MemberLimit: limit,
	})
	if err != nil {
		return Stay, err
	}

	limitText := "♾️ Cheksiz"
	if ch.MemberLimit != nil {
		limitText = fmt.Sprintf("%d", *ch.MemberLimit)
	}
	return fc.Done(ctx, fmt.Sprintf("✅ Majburiy kanal qo'shildi!\n\n📢 %s\n🔗 %s\n📂 Turi: %s\n👥 Limit: %s",
		ch.ChannelName, ch.ChannelLink, ch.Type, limitText))
}

type channelSearchFlow struct{}

func (channelSearchFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "🔍 Kanal linkini yuboring:", keyboard.Cancel())
}

func (channelSearchFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	link, err := requireText(fc.Input)
	if err != nil {
		return Stay, err
	}

	ch, err := fc.Deps().Channels.MandatoryByLink(ctx, link)
	if apperrors.IsNotFound(err) {
		return Stay, apperrors.NewNotFoundError("channel", "❌ Bu link bilan kanal topilmadi!\n\nBoshqa link yuboring:")
	}
	if err != nil {
		return Stay, err
	}

	return fc.Done(ctx, FormatMandatoryChannel(*ch))
}

// FormatMandatoryChannel renders a channel card for the admin panel.
func FormatMandatoryChannel(ch domain.MandatoryChannel) string {
	status := "✅ Faol"
	if !ch.IsActive {
		status = "❌ Nofaol"
	}
	limit := "♾️ Cheksiz"
	if ch.MemberLimit != nil {
		limit = fmt.Sprintf("%d/%d", ch.CurrentMembers, *ch.MemberLimit)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📢 %s\n\n", ch.ChannelName)
	fmt.Fprintf(&b, "🔗 %s\n", ch.ChannelLink)
	fmt.Fprintf(&b, "📂 Turi: %s\n", ch.Type)
	fmt.Fprintf(&b, "📊 Holat: %s\n", status)
	fmt.Fprintf(&b, "👥 A'zolar: %d (limit: %s)\n", ch.CurrentMembers, limit)
	if ch.Type == domain.ChannelPrivate {
		fmt.Fprintf(&b, "⏳ So'rovlar: %d\n", ch.PendingRequests)
	}
	fmt.Fprintf(&b, "📅 Qo'shilgan: %s", ch.CreatedAt.Format("02.01.2006"))
	return b.String()
}
