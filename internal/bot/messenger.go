package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/subscription"
	"github.com/Proton-105/kino-bot/internal/wizard"
)

const telegramAPI = "telegram"

// chatRecipient addresses a chat by numeric id or @username.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

// Messenger adapts the telebot API to wizard.Messenger.
type Messenger struct {
	api *telebot.Bot
	me  *telebot.User
}

// NewMessenger wraps api. me is the bot account; its username builds deep links.
func NewMessenger(api *telebot.Bot, me *telebot.User) *Messenger {
	return &Messenger{api: api, me: me}
}

var _ wizard.Messenger = (*Messenger)(nil)

func (m *Messenger) Send(ctx context.Context, to wizard.Chat, text string, markup *keyboard.Markup) (int, error) {
	return m.send(ctx, to, text, markup)
}

func (m *Messenger) SendPhoto(ctx context.Context, to wizard.Chat, fileID, caption string, markup *keyboard.Markup) (int, error) {
	return m.send(ctx, to, &telebot.Photo{File: telebot.File{FileID: fileID}, Caption: caption}, markup)
}

func (m *Messenger) SendVideo(ctx context.Context, to wizard.Chat, fileID, caption string, markup *keyboard.Markup) (int, error) {
	return m.send(ctx, to, &telebot.Video{File: telebot.File{FileID: fileID}, Caption: caption}, markup)
}

func (m *Messenger) Copy(ctx context.Context, to, from wizard.Chat, messageID int, markup *keyboard.Markup) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	fromID, err := strconv.ParseInt(string(from), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("copy message: source chat %q is not numeric", from)
	}

	source := telebot.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: fromID}
	msg, err := m.api.Copy(chatRecipient(to), source, options(markup)...)
	if err != nil {
		return 0, apperrors.NewExternalAPIError(telegramAPI, err)
	}
	return msg.ID, nil
}

func (m *Messenger) Edit(ctx context.Context, chat wizard.Chat, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(string(chat), 10, 64)
	if err != nil {
		return fmt.Errorf("edit message: chat %q is not numeric", chat)
	}

	if _, err := m.api.Edit(telebot.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}, text); err != nil {
		return apperrors.NewExternalAPIError(telegramAPI, err)
	}
	return nil
}

func (m *Messenger) ChatInfo(ctx context.Context, chat wizard.Chat) (wizard.ChatInfo, error) {
	if err := ctx.Err(); err != nil {
		return wizard.ChatInfo{}, err
	}

	info, err := m.api.ChatByUsername(string(chat))
	if err != nil {
		return wizard.ChatInfo{}, apperrors.NewExternalAPIError(telegramAPI, err)
	}

	return wizard.ChatInfo{
		ID:       strconv.FormatInt(info.ID, 10),
		Title:    info.Title,
		Username: info.Username,
		Type:     string(info.Type),
	}, nil
}

func (m *Messenger) BotStatus(ctx context.Context, chat wizard.Chat) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if m.me == nil {
		return "", fmt.Errorf("bot status: bot identity is unknown")
	}

	member, err := m.api.ChatMemberOf(chatRecipient(chat), m.me)
	if err != nil {
		return "", apperrors.NewExternalAPIError(telegramAPI, err)
	}
	return string(member.Role), nil
}

func (m *Messenger) BotUsername() string {
	if m.me == nil {
		return ""
	}
	return m.me.Username
}

func (m *Messenger) send(ctx context.Context, to wizard.Chat, what any, markup *keyboard.Markup) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	msg, err := m.api.Send(chatRecipient(to), what, options(markup)...)
	if err != nil {
		return 0, apperrors.NewExternalAPIError(telegramAPI, err)
	}
	return msg.ID, nil
}

// MembershipChecker answers chat member lookups for the subscription gate.
type MembershipChecker struct {
	api *telebot.Bot
}

func NewMembershipChecker(api *telebot.Bot) *MembershipChecker {
	return &MembershipChecker{api: api}
}

var _ subscription.MembershipChecker = (*MembershipChecker)(nil)

// ChatMember reports the membership of userID in chatID. Telegram answers
// "user not found" for users that never joined; that counts as left.
func (m *MembershipChecker) ChatMember(ctx context.Context, chatID string, userID int64) (subscription.Membership, error) {
	if err := ctx.Err(); err != nil {
		return subscription.Membership{}, err
	}

	member, err := m.api.ChatMemberOf(chatRecipient(chatID), telebot.ChatID(userID))
	if err != nil {
		if isNotParticipant(err) {
			return subscription.Membership{Status: subscription.StatusLeft}, nil
		}
		return subscription.Membership{}, err
	}

	return subscription.Membership{Status: string(member.Role), IsMember: member.Member}, nil
}

func isNotParticipant(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user not found") ||
		strings.Contains(msg, "participant_id_invalid") ||
		strings.Contains(msg, "user_not_participant")
}

// options converts a markup into telebot send options.
func options(markup *keyboard.Markup) []any {
	rm := replyMarkup(markup)
	if rm == nil {
		return nil
	}
	return []any{rm}
}

func replyMarkup(markup *keyboard.Markup) *telebot.ReplyMarkup {
	switch {
	case markup == nil:
		return nil
	case markup.Remove:
		return &telebot.ReplyMarkup{RemoveKeyboard: true}
	case markup.IsInline():
		rows := make([][]telebot.InlineButton, 0, len(markup.Inline))
		for _, row := range markup.Inline {
			buttons := make([]telebot.InlineButton, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons, telebot.InlineButton{Text: btn.Text, Data: btn.Data, URL: btn.URL})
			}
			rows = append(rows, buttons)
		}
		return &telebot.ReplyMarkup{InlineKeyboard: rows}
	case len(markup.Reply) > 0:
		rows := make([][]telebot.ReplyButton, 0, len(markup.Reply))
		for _, row := range markup.Reply {
			buttons := make([]telebot.ReplyButton, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons, telebot.ReplyButton{Text: btn.Text})
			}
			rows = append(rows, buttons)
		}
		return &telebot.ReplyMarkup{ReplyKeyboard: rows, ResizeKeyboard: true}
	default:
		return nil
	}
}
