package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/state"
)

const (
	ReasonBadReceipt = "Yuborilgan chek noto'g'ri yoki o'qib bo'lmaydi"
	ReasonNoMoney    = "To'lov hali kartaga tushmagan"
)

var durationButtons = map[string]int{
	keyboard.BtnDuration30:  30,
	keyboard.BtnDuration90:  90,
	keyboard.BtnDuration180: 180,
	keyboard.BtnDuration365: 365,
}

var reasonButtons = map[string]string{
	keyboard.BtnReasonBadReceipt: ReasonBadReceipt,
	keyboard.BtnReasonNoMoney:    ReasonNoMoney,
}

// translatorFor returns the translator of a user, falling back to the
// translator of the current update.
func (fc *FlowContext) translatorFor(ctx context.Context, telegramID int64) i18n.Translator {
	if resolver := fc.Deps().Locales; resolver != nil {
		if t := resolver.TranslatorFor(ctx, telegramID); t != nil {
			return t
		}
	}
	return fc.T
}

// notify sends text to a user. Failures are logged since the user may have
// blocked the bot.
func (fc *FlowContext) notify(ctx context.Context, telegramID int64, text string) {
	if _, err := fc.Messenger().Send(ctx, UserChat(telegramID), text, nil); err != nil {
		fc.d.log.Warn("failed to notify user", "telegram_id", telegramID, "error", err)
	}
}

func tr(t i18n.Translator, key string, data map[string]any) string {
	if t == nil {
		return key
	}
	if data == nil {
		return t.T(key)
	}
	return t.TData(key, data)
}

type approvePaymentFlow struct{}

func (approvePaymentFlow) Begin(ctx context.Context, fc *FlowContext) error {
	w := fc.Session.Wizard.(*state.ApprovePaymentWizard)
	return fc.Reply(ctx, fmt.Sprintf("✅ To'lov #%d ni tasdiqlash\n💰 Summa: %s so'm\n\n📅 Premium muddatini tanlang yoki kunlar sonini kiriting:",
		w.PaymentID, i18n.Amount("uz", w.Amount)), keyboard.WithCancel(
		[]string{keyboard.BtnDuration30, keyboard.BtnDuration90},
		[]string{keyboard.BtnDuration180, keyboard.BtnDuration365},
	))
}

func (approvePaymentFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.ApprovePaymentWizard)
	text := strings.TrimSpace(fc.Input.Text)

	days, ok := durationButtons[text]
	if !ok {
		custom, err := parsePositive(text, "❌ Iltimos, muddatni tanlang yoki kunlar sonini kiriting!")
		if err != nil {
			return Stay, err
		}
		days = int(custom)
	}

	payment, err := fc.Deps().Payments.Approve(ctx, w.PaymentID, fc.Session.OwnerID, days)
	if err != nil {
		return Stay, err
	}

	t := fc.translatorFor(ctx, payment.UserTelegramID)
	fc.notify(ctx, payment.UserTelegramID, tr(t, "premium.approved", map[string]any{"Days": days}))

	return fc.Done(ctx, fmt.Sprintf("✅ To'lov #%d tasdiqlandi!\n\n👤 %s\n📅 %d kun premium berildi.",
		payment.ID, payment.UserFirstName, days))
}

type rejectPaymentFlow struct{}

func (rejectPaymentFlow) Begin(ctx context.Context, fc *FlowContext) error {
	w := fc.Session.Wizard.(*state.RejectPaymentWizard)
	return fc.Reply(ctx, fmt.Sprintf("❌ To'lov #%d ni rad etish\n\nSababni tanlang:", w.PaymentID), keyboard.WithCancel(
		[]string{keyboard.BtnReasonBadReceipt, keyboard.BtnReasonNoMoney},
		[]string{keyboard.BtnReasonOther},
	))
}

func (rejectPaymentFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.RejectPaymentWizard)
	text := strings.TrimSpace(fc.Input.Text)

	var reason string
	switch {
	case w.AwaitingCustomReason:
		value, err := requireText(fc.Input)
		if err != nil {
			return Stay, err
		}
		reason = value
	case text == keyboard.BtnReasonOther:
		w.AwaitingCustomReason = true
		if err := fc.Reply(ctx, "📝 Rad etish sababini yozing:", keyboard.Cancel()); err != nil {
			return Stay, err
		}
		return Save, nil
	default:
		preset, ok := reasonButtons[text]
		if !ok {
			return Stay, apperrors.NewValidationError("❌ Iltimos, sababni tugmalardan tanlang!")
		}
		reason = preset
	}

	outcome, err := fc.Deps().Payments.Reject(ctx, w.PaymentID, fc.Session.OwnerID, reason)
	if err != nil {
		return Stay, err
	}

	userID := outcome.Payment.UserTelegramID
	t := fc.translatorFor(ctx, userID)
	fc.notify(ctx, userID, tr(t, "premium.rejected", map[string]any{"Reason": reason}))

	summary := fmt.Sprintf("❌ To'lov #%d rad etildi.\n\n📝 Sabab: %s\n⚠️ Rad etishlar soni: %d", outcome.Payment.ID, reason, outcome.BanCount)
	if outcome.Banned {
		fc.notify(ctx, userID, tr(t, "premium.banned_notice", nil))
		summary += "\n🚫 Foydalanuvchi premiumdan chetlatildi."
	}
	return fc.Done(ctx, summary)
}

type receiptFlow struct{}

func (receiptFlow) Begin(ctx context.Context, fc *FlowContext) error {
	w := fc.Session.Wizard.(*state.ReceiptWizard)
	settings, err := fc.Deps().Settings.Settings(ctx)
	if err != nil {
		return err
	}
	text := tr(fc.T, "premium.payment_details", map[string]any{
		"Card":   settings.Card.Number,
		"Holder": settings.Card.Holder,
		"Price":  i18n.Amount(langOf(fc.T), w.Amount),
	})
	return fc.Reply(ctx, text, keyboard.Cancel())
}

func (receiptFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.ReceiptWizard)
	if fc.Input.PhotoID == "" {
		return Stay, apperrors.NewValidationError(tr(fc.T, "premium.receipt_expected", nil))
	}

	payment, err := fc.Deps().Payments.Submit(ctx, fc.Session.OwnerID, w.Amount, w.DurationDays, fc.Input.PhotoID)
	if err != nil {
		return Stay, err
	}

	if err := notifyAdmins(ctx, fc, payment); err != nil {
		fc.d.log.Error("failed to notify admins about payment", "payment_id", payment.ID, "error", err)
	}

	if err := fc.Reply(ctx, tr(fc.T, "premium.receipt_received", nil), keyboard.UserMenu(fc.T, false)); err != nil {
		return Finish, err
	}
	return Finish, nil
}

// PaymentReviewMarkup holds the approve and reject buttons of a payment.
func PaymentReviewMarkup(paymentID int64) *keyboard.Markup {
	return keyboard.NewInlineKeyboard().AddRow(
		keyboard.InlineButton{Text: "✅ Tasdiqlash", Unique: keyboard.CbApprovePayment, Data: keyboard.IDPayload(paymentID)},
		keyboard.InlineButton{Text: "❌ Rad etish", Unique: keyboard.CbRejectPayment, Data: keyboard.IDPayload(paymentID)},
	).MustBuild()
}

// PaymentCaption renders a payment for reviewers.
func PaymentCaption(p domain.Payment) string {
	return fmt.Sprintf("💳 Yangi to'lov #%d\n\n👤 %s (ID: %d)\n💰 Summa: %s so'm\n📅 Muddat: %d kun\n🕐 %s",
		p.ID, p.UserFirstName, p.UserTelegramID, i18n.Amount("uz", p.Amount), p.DurationDays, p.CreatedAt.Format("02.01.2006 15:04"))
}

func notifyAdmins(ctx context.Context, fc *FlowContext, payment *domain.Payment) error {
	settings, err := fc.Deps().Settings.Settings(ctx)
	if err != nil {
		return err
	}

	var targets []Chat
	if settings.AdminNotificationChat != "" {
		targets = append(targets, Chat(settings.AdminNotificationChat))
	} else {
		admins, err := fc.Deps().Admins.ListAdmins(ctx)
		if err != nil {
			return err
		}
		for _, admin := range admins {
			if admin.Can(domain.PermPayments) {
				targets = append(targets, UserChat(admin.TelegramID))
			}
		}
	}

	caption := PaymentCaption(*payment)
	markup := PaymentReviewMarkup(payment.ID)
	for _, target := range targets {
		if _, err := fc.Messenger().SendPhoto(ctx, target, payment.ReceiptFileID, caption, markup); err != nil {
			fc.d.log.Warn("failed to deliver payment to reviewer", "chat", target, "error", err)
		}
	}
	return nil
}

func langOf(t i18n.Translator) string {
	if t == nil {
		return "uz"
	}
	return t.Lang()
}
