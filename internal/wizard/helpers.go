package wizard

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/state"
)

// suggestionLimit bounds the alternatives offered for a taken code.
const suggestionLimit = 5

const (
	msgCodeNotNumeric   = "❌ Kod faqat raqamlardan iborat bo'lishi kerak!\nMasalan: 12345\n\nIltimos, qaytadan kiriting:"
	msgTextRequired     = "❌ Iltimos, matn yuboring!"
	msgPhotoRequired    = "❌ Iltimos, rasm yuboring!"
	msgVideoRequired    = "❌ Iltimos, video yuboring!"
	msgNoDatabase       = "❌ Hech qanday database kanal topilmadi!\n\nAvval database kanal qo'shing."
	msgNoFields         = "❌ Hech qanday field topilmadi. Avval field qo'shing!"
	msgPositiveRequired = "❌ Iltimos, musbat son kiriting!"
)

var contentCodePattern = regexp.MustCompile(`^([mMsS]?)(\d+)$`)

// parseCode parses a positive numeric content code.
func parseCode(text string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || code <= 0 {
		return 0, apperrors.NewValidationError(msgCodeNotNumeric)
	}
	return code, nil
}

// parsePositive parses a positive integer or fails with msg.
func parsePositive(text, msg string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(strings.ReplaceAll(text, " ", "")), 10, 64)
	if err != nil || value <= 0 {
		return 0, apperrors.NewValidationError(msg)
	}
	return value, nil
}

func requireText(in Input) (string, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return "", apperrors.NewValidationError(msgTextRequired)
	}
	return text, nil
}

// checkCodeFree rejects code when the other content kind owns it, or when
// kind itself already uses it, listing the nearest free codes.
func checkCodeFree(ctx context.Context, content ContentService, kind domain.ContentKind, code int) error {
	if kind == domain.ContentMovie {
		serial, err := content.SerialByCode(ctx, code)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if serial != nil {
			return apperrors.NewValidationError(fmt.Sprintf(
				"❌ Bu kod \"%s\" serialiga tegishli!\n\nBoshqa kod kiriting:", serial.Title))
		}
	} else {
		movie, err := content.MovieByCode(ctx, code)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if movie != nil {
			return apperrors.NewValidationError(fmt.Sprintf(
				"❌ Bu kod \"%s\" kinosiga tegishli!\n\nBoshqa kod kiriting:", movie.Title))
		}
	}

	available, err := content.IsCodeAvailable(ctx, code)
	if err != nil {
		return err
	}
	if available {
		return nil
	}

	nearest, err := content.NearestAvailableCodes(ctx, code, suggestionLimit)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "❌ %d kodi band!\n", code)
	if len(nearest) > 0 {
		b.WriteString("\n✅ Bo'sh kodlar:\n")
		for _, free := range nearest {
			fmt.Fprintf(&b, "• %d\n", free)
		}
	}
	b.WriteString("\nBoshqa kod kiriting:")
	return apperrors.NewValidationError(b.String())
}

// loadFieldOptions fetches the active fields for selection.
func loadFieldOptions(ctx context.Context, fields FieldService) ([]state.FieldOption, error) {
	list, err := fields.ListFields(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]state.FieldOption, 0, len(list))
	for _, f := range list {
		options = append(options, state.NewFieldOption(f))
	}
	return options, nil
}

func fieldPrompt(options []state.FieldOption) string {
	var b strings.Builder
	b.WriteString("📁 Fieldni tanlang (raqamini yuboring):\n\n")
	for i, option := range options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, option.Name)
	}
	return b.String()
}

// pickField resolves a 1-based selection.
func pickField(options []state.FieldOption, text string) (*state.FieldOption, error) {
	index, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || index < 1 || index > len(options) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("❌ Noto'g'ri raqam! 1 dan %d gacha raqam kiriting:", len(options)))
	}
	option := options[index-1]
	return &option, nil
}

// description returns nil when the admin skipped the step.
func description(text string) *string {
	if strings.EqualFold(strings.TrimSpace(text), keyboard.BtnSkip) {
		return nil
	}
	value := strings.TrimSpace(text)
	return &value
}

func descriptionPrompt() (string, *keyboard.Markup) {
	return "📝 Tavsifini kiriting:\n\n⏭ O'tkazib yuborish uchun \"Next\" deb yozing", keyboard.WithCancel([]string{keyboard.BtnSkip})
}

// copyToDatabase stores videoFileID in every active database channel.
func copyToDatabase(ctx context.Context, fc *FlowContext, channels []domain.DatabaseChannel, videoFileID, caption string) ([]domain.ChannelMessage, error) {
	copies := make([]domain.ChannelMessage, 0, len(channels))
	for _, ch := range channels {
		messageID, err := fc.Messenger().SendVideo(ctx, Chat(ch.ChannelID), videoFileID, caption, nil)
		if err != nil {
			return nil, fmt.Errorf("copy video to database channel %s: %w", ch.ChannelID, err)
		}
		copies = append(copies, domain.ChannelMessage{ChannelID: ch.ChannelID, MessageID: messageID})
	}
	return copies, nil
}

// databaseChannels loads the storage channels, reporting false when none exist.
func databaseChannels(ctx context.Context, fc *FlowContext) ([]domain.DatabaseChannel, bool, error) {
	channels, err := fc.Deps().Channels.ActiveDatabaseChannels(ctx)
	if err != nil {
		return nil, false, err
	}
	return channels, len(channels) > 0, nil
}

// ContentCaption renders the caption shown with posters and video copies.
func ContentCaption(kind domain.ContentKind, code int, title, genre string, desc *string, fieldName string, episodes int) string {
	var b strings.Builder
	if kind == domain.ContentSerial {
		fmt.Fprintf(&b, "📺 %s\n\n", title)
	} else {
		fmt.Fprintf(&b, "🎬 %s\n\n", title)
	}
	if desc != nil && *desc != "" {
		fmt.Fprintf(&b, "📝 %s\n\n", *desc)
	}
	fmt.Fprintf(&b, "🎭 Janr: %s\n", genre)
	if fieldName != "" {
		fmt.Fprintf(&b, "📁 Field: %s\n", fieldName)
	}
	if episodes > 0 {
		fmt.Fprintf(&b, "🎞 Qismlar: %d\n", episodes)
	}
	fmt.Fprintf(&b, "🔢 Kod: %s", ContentPayload(kind, code))
	return b.String()
}

// ContentPayload is the deep-link payload of content: "<code>" or "s<code>".
func ContentPayload(kind domain.ContentKind, code int) string {
	if kind == domain.ContentSerial {
		return "s" + strconv.Itoa(code)
	}
	return strconv.Itoa(code)
}

// ParseContentCode parses "123", "m123" or "s123".
func ParseContentCode(text string) (domain.ContentKind, int, bool) {
	match := contentCodePattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return "", 0, false
	}
	code, err := strconv.Atoi(match[2])
	if err != nil || code <= 0 {
		return "", 0, false
	}
	if strings.EqualFold(match[1], "s") {
		return domain.ContentSerial, code, true
	}
	return domain.ContentMovie, code, true
}

// watchButton links a poster to the content inside the bot.
func watchButton(botUsername string, kind domain.ContentKind, code int) *keyboard.Markup {
	return &keyboard.Markup{Inline: [][]keyboard.Button{{
		keyboard.URLButton("▶️ Tomosha qilish", DeepLink(botUsername, ContentPayload(kind, code))),
	}}}
}
