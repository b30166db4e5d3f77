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
)

var deleteCodePattern = regexp.MustCompile(`^([mMsS])(\d+)$`)

type deleteContentFlow struct{}

func (deleteContentFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "🗑️ Kontent o'chirish\n\nKodni kiriting:\n• Kino uchun: m123\n• Serial uchun: s45", keyboard.Cancel())
}

func (deleteContentFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	match := deleteCodePattern.FindStringSubmatch(strings.TrimSpace(fc.Input.Text))
	if match == nil {
		return Stay, apperrors.NewValidationError("❌ Noto'g'ri format! Masalan: m123 yoki s45")
	}
	code, err := strconv.Atoi(match[2])
	if err != nil || code <= 0 {
		return Stay, apperrors.NewValidationError("❌ Noto'g'ri format! Masalan: m123 yoki s45")
	}

	kind := domain.ContentMovie
	if strings.EqualFold(match[1], "s") {
		kind = domain.ContentSerial
	}

	id, title, err := findContent(ctx, fc.Deps().Content, kind, code)
	if apperrors.IsNotFound(err) {
		return Finish, apperrors.NewNotFoundError(string(kind), fmt.Sprintf("❌ %s%d kodli kontent topilmadi.", match[1], code))
	}
	if err != nil {
		return Stay, err
	}

	markup := keyboard.NewInlineKeyboard().AddRow(
		keyboard.InlineButton{Text: "🗑️ O'chirish", Unique: keyboard.CbConfirmDelete, Data: deletePayload(kind, id)},
		keyboard.InlineButton{Text: keyboard.BtnCancel, Unique: keyboard.CbCancelAction},
	).MustBuild()

	if err := fc.Reply(ctx, fmt.Sprintf("⚠️ \"%s\" (%s) o'chirilsinmi?\n\nBu amalni qaytarib bo'lmaydi!", title, ContentPayload(kind, code)), markup); err != nil {
		return Stay, err
	}
	return Stay, nil
}

func (deleteContentFlow) Callback(ctx context.Context, fc *FlowContext, cb Callback) (Outcome, error) {
	if cb.Unique != keyboard.CbConfirmDelete {
		return Stay, nil
	}

	kind, id, ok := parseDeletePayload(cb.Data)
	if !ok {
		return Finish, apperrors.NewValidationError("❌ Noto'g'ri so'rov.")
	}
	if err := fc.Deps().Content.Delete(ctx, kind, id); err != nil {
		if apperrors.IsNotFound(err) {
			return Finish, apperrors.NewNotFoundError(string(kind), "❌ Kontent allaqachon o'chirilgan.")
		}
		return Stay, err
	}
	return fc.Done(ctx, "✅ Kontent o'chirildi!")
}

func findContent(ctx context.Context, content ContentService, kind domain.ContentKind, code int) (int64, string, error) {
	if kind == domain.ContentSerial {
		serial, err := content.SerialByCode(ctx, code)
		if err != nil {
			return 0, "", err
		}
		return serial.ID, serial.Title, nil
	}
	movie, err := content.MovieByCode(ctx, code)
	if err != nil {
		return 0, "", err
	}
	return movie.ID, movie.Title, nil
}

func deletePayload(kind domain.ContentKind, id int64) string {
	return string(kind) + keyboard.CallbackDataSeparator + strconv.FormatInt(id, 10)
}

func parseDeletePayload(data string) (domain.ContentKind, int64, bool) {
	kindText, idText, found := strings.Cut(data, keyboard.CallbackDataSeparator)
	if !found {
		return "", 0, false
	}
	kind := domain.ContentKind(kindText)
	if kind != domain.ContentMovie && kind != domain.ContentSerial {
		return "", 0, false
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return kind, id, true
}
