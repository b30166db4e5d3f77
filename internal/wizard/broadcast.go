package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/broadcast"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/state"
)

var audienceNames = map[state.Audience]string{
	state.AudienceAll:             "Barcha foydalanuvchilar",
	state.AudiencePremium:         "Premium foydalanuvchilar",
	state.AudienceFree:            "Oddiy foydalanuvchilar",
	state.AudienceTelegramPremium: "Telegram Premium foydalanuvchilar",
}

// AudienceName is the admin-facing label of an audience.
func AudienceName(a state.Audience) string {
	if name, ok := audienceNames[a]; ok {
		return name
	}
	return string(a)
}

type broadcastFlow struct{}

func (broadcastFlow) Begin(ctx context.Context, fc *FlowContext) error {
	w := fc.Session.Wizard.(*state.BroadcastWizard)
	if !w.Audience.Valid() {
		return fmt.Errorf("broadcast: unknown audience %q", w.Audience)
	}
	return fc.Reply(ctx, fmt.Sprintf("📣 Auditoriya: %s\n\nYubormoqchi bo'lgan xabaringizni yuboring (matn, rasm yoki video):",
		AudienceName(w.Audience)), keyboard.Cancel())
}

func (broadcastFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.BroadcastWizard)
	in := fc.Input
	if in.Text == "" && in.PhotoID == "" && in.VideoID == "" {
		return Stay, apperrors.NewValidationError("❌ Iltimos, matn, rasm yoki video yuboring!")
	}

	owner := fc.Owner()
	send := func(ctx context.Context, recipient domain.User) error {
		_, err := fc.Messenger().Copy(ctx, UserChat(recipient.TelegramID), owner, in.MessageID, nil)
		return err
	}

	report, err := runBroadcast(ctx, fc, w.Audience, send)
	if err != nil {
		return Stay, err
	}
	return fc.Done(ctx, FormatReport(report))
}

// runBroadcast delivers to audience while editing a live status message.
func runBroadcast(ctx context.Context, fc *FlowContext, audience state.Audience, send broadcast.SendFunc) (broadcast.Report, error) {
	statusID, err := fc.Messenger().Send(ctx, fc.Owner(), "⏳ Yuborilmoqda...", keyboard.Remove())
	if err != nil {
		return broadcast.Report{}, err
	}

	progress := func(ctx context.Context, p broadcast.Progress) {
		text := fmt.Sprintf("⏳ Yuborilmoqda...\n\n✅ Yuborildi: %d\n❌ Xato: %d\n👥 Jami: %d", p.Sent, p.Failed, p.Total)
		if err := fc.Messenger().Edit(ctx, fc.Owner(), statusID, text); err != nil {
			fc.d.log.Debug("failed to update broadcast status", "error", err)
		}
	}

	return fc.Deps().Broadcaster.Run(ctx, audience, send, progress)
}

// FormatReport renders the final broadcast totals.
func FormatReport(r broadcast.Report) string {
	return fmt.Sprintf("✅ Xabar yuborish yakunlandi!\n\n👥 Auditoriya: %s\n✅ Yuborildi: %d\n❌ Xato: %d\n📊 Jami: %d\n⏱ Vaqt: %s",
		AudienceName(r.Audience), r.Sent, r.Failed, r.Total, r.Duration.Round(time.Second))
}

type premiereFlow struct{}

func (premiereFlow) Begin(ctx context.Context, fc *FlowContext) error {
	w := fc.Session.Wizard.(*state.PremiereWizard)
	if w.Audience == "" {
		w.Audience = state.AudienceAll
	}
	return fc.Reply(ctx, "🎬 Premyera e'loni\n\n🔢 Kino yoki serial kodini kiriting:\nMasalan: 100 yoki s200", keyboard.Cancel())
}

func (premiereFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.PremiereWizard)
	if w.Step != state.PremiereStepCode {
		return Stay, nil
	}

	kind, code, ok := ParseContentCode(fc.Input.Text)
	if !ok {
		return Stay, apperrors.NewValidationError("❌ Noto'g'ri format! Masalan: 100 yoki s200")
	}

	poster, err := loadPoster(ctx, fc, kind, code)
	if err != nil {
		return Stay, err
	}

	w.Kind = kind
	w.Code = code
	w.SetStep(int(state.PremiereStepConfirm))

	markup := keyboard.NewInlineKeyboard().AddRow(
		keyboard.InlineButton{Text: "📢 Field kanalga va foydalanuvchilarga", Unique: keyboard.CbPremiereFieldSend},
	).AddRow(
		keyboard.InlineButton{Text: "👥 Faqat foydalanuvchilarga", Unique: keyboard.CbPremiereUsersSend},
	).AddRow(
		keyboard.InlineButton{Text: keyboard.BtnCancel, Unique: keyboard.CbCancelAction},
	).MustBuild()

	if _, err := fc.Messenger().SendPhoto(ctx, fc.Owner(), poster.fileID, poster.caption, markup); err != nil {
		return Stay, err
	}
	return Save, nil
}

func (premiereFlow) Callback(ctx context.Context, fc *FlowContext, cb Callback) (Outcome, error) {
	w := fc.Session.Wizard.(*state.PremiereWizard)
	if w.Step != state.PremiereStepConfirm {
		return Stay, nil
	}
	if cb.Unique != keyboard.CbPremiereFieldSend && cb.Unique != keyboard.CbPremiereUsersSend {
		return Stay, nil
	}

	poster, err := loadPoster(ctx, fc, w.Kind, w.Code)
	if err != nil {
		return Finish, err
	}
	button := watchButton(fc.Messenger().BotUsername(), w.Kind, w.Code)

	if cb.Unique == keyboard.CbPremiereFieldSend && poster.fieldChannel != "" {
		if _, err := fc.Messenger().SendPhoto(ctx, Chat(poster.fieldChannel), poster.fileID, poster.caption, button); err != nil {
			return Stay, fmt.Errorf("post premiere to field channel: %w", err)
		}
	}

	send := func(ctx context.Context, recipient domain.User) error {
		_, err := fc.Messenger().SendPhoto(ctx, UserChat(recipient.TelegramID), poster.fileID, "🎉 Premyera!\n\n"+poster.caption, button)
		return err
	}
	report, err := runBroadcast(ctx, fc, w.Audience, send)
	if err != nil {
		return Stay, err
	}
	return fc.Done(ctx, FormatReport(report))
}

type posterInfo struct {
	fileID       string
	caption      string
	fieldChannel string
}

func loadPoster(ctx context.Context, fc *FlowContext, kind domain.ContentKind, code int) (posterInfo, error) {
	content := fc.Deps().Content
	notFound := apperrors.NewNotFoundError("content", "❌ Bu kod bilan kontent topilmadi!\n\nBoshqa kod kiriting:")

	var (
		info    posterInfo
		fieldID int64
	)
	if kind == domain.ContentSerial {
		serial, err := content.SerialByCode(ctx, code)
		if apperrors.IsNotFound(err) {
			return info, notFound
		}
		if err != nil {
			return info, err
		}
		info.fileID = serial.PosterFileID
		info.caption = ContentCaption(kind, serial.Code, serial.Title, serial.Genre, serial.Description, serial.FieldName, serial.TotalEpisodes)
		fieldID = serial.FieldID
	} else {
		movie, err := content.MovieByCode(ctx, code)
		if apperrors.IsNotFound(err) {
			return info, notFound
		}
		if err != nil {
			return info, err
		}
		info.fileID = movie.PosterFileID
		info.caption = ContentCaption(kind, movie.Code, movie.Title, movie.Genre, movie.Description, movie.FieldName, 0)
		fieldID = movie.FieldID
	}

	field, err := fc.Deps().Fields.FieldByID(ctx, fieldID)
	switch {
	case err == nil:
		info.fieldChannel = field.ChannelID
	case !apperrors.IsNotFound(err):
		return info, err
	}
	return info, nil
}
