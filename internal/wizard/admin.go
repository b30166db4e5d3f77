package wizard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/state"
)

var roleButtons = map[string]domain.Role{
	keyboard.BtnRoleAdmin:      domain.RoleAdmin,
	keyboard.BtnRoleManager:    domain.RoleManager,
	keyboard.BtnRoleSuperAdmin: domain.RoleSuperAdmin,
}

type adminFlow struct{}

func (adminFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "👤 Yangi admin qo'shish\n\n🔢 Foydalanuvchining Telegram ID sini kiriting:", keyboard.Cancel())
}

func (adminFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.AdminWizard)

	switch w.Step {
	case state.AdminStepTelegramID:
		id, err := strconv.ParseInt(strings.TrimSpace(fc.Input.Text), 10, 64)
		if err != nil || id <= 0 {
			return Stay, apperrors.NewValidationError("❌ Telegram ID faqat raqamlardan iborat bo'lishi kerak!")
		}
		existing, err := fc.Deps().Admins.AdminByTelegramID(ctx, id)
		if err != nil && !apperrors.IsNotFound(err) {
			return Stay, err
		}
		if existing != nil {
			return Stay, apperrors.NewValidationError("❌ Bu foydalanuvchi allaqachon admin!")
		}
		w.TelegramID = id
		return fc.Next(ctx, int(state.AdminStepRole), "👔 Rolni tanlang:", keyboard.WithCancel(
			[]string{keyboard.BtnRoleAdmin, keyboard.BtnRoleManager},
			[]string{keyboard.BtnRoleSuperAdmin},
		))

	case state.AdminStepRole:
		role, ok := roleButtons[strings.TrimSpace(fc.Input.Text)]
		if !ok {
			return Stay, apperrors.NewValidationError("❌ Iltimos, rolni tugmalardan tanlang!")
		}
		admin := domain.Admin{TelegramID: w.TelegramID, Username: w.Username, Role: role}
		if fc.Admin != nil {
			createdBy := fc.Admin.TelegramID
			admin.CreatedBy = &createdBy
		}
		created, err := fc.Deps().Admins.AddAdmin(ctx, admin)
		if err != nil {
			return Stay, err
		}
		return fc.Done(ctx, fmt.Sprintf("✅ Admin qo'shildi!\n\n🆔 %d\n👔 Rol: %s", created.TelegramID, created.Role))
	}

	return Stay, nil
}

var priceSteps = []struct {
	prompt string
	set    func(*domain.PremiumPrices, int64)
}{
	{"💰 1 oylik narxni kiriting (so'm):", func(p *domain.PremiumPrices, v int64) { p.Monthly = v }},
	{"💰 3 oylik narxni kiriting (so'm):", func(p *domain.PremiumPrices, v int64) { p.Quarterly = v }},
	{"💰 6 oylik narxni kiriting (so'm):", func(p *domain.PremiumPrices, v int64) { p.HalfYear = v }},
	{"💰 12 oylik narxni kiriting (so'm):", func(p *domain.PremiumPrices, v int64) { p.Yearly = v }},
}

type pricesFlow struct{}

func (pricesFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "💎 Premium narxlarini o'zgartirish\n\n"+priceSteps[0].prompt, keyboard.Cancel())
}

func (pricesFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.PricesWizard)
	step := int(w.Step)
	if step >= len(priceSteps) {
		return Stay, nil
	}

	price, err := parsePositive(fc.Input.Text, "❌ Narx musbat son bo'lishi kerak!\nMasalan: 25000")
	if err != nil {
		return Stay, err
	}
	priceSteps[step].set(&w.Prices, price)

	if step+1 < len(priceSteps) {
		return fc.Next(ctx, step+1, priceSteps[step+1].prompt, nil)
	}

	if err := fc.Deps().Settings.UpdatePrices(ctx, w.Prices); err != nil {
		return Stay, err
	}
	return fc.Done(ctx, "✅ Narxlar yangilandi!\n\n"+FormatPrices(w.Prices))
}

// FormatPrices lists plan prices in UZS.
func FormatPrices(p domain.PremiumPrices) string {
	var b strings.Builder
	for _, plan := range p.Plans() {
		fmt.Fprintf(&b, "• %d oy: %s so'm\n", plan.Months, i18n.Amount("uz", plan.Price))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

type cardFlow struct{}

func (cardFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "💳 Karta ma'lumotlarini o'zgartirish\n\n🔢 Karta raqamini kiriting:", keyboard.Cancel())
}

func (cardFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.CardWizard)

	switch w.Step {
	case state.CardStepNumber:
		number, err := normalizeCardNumber(fc.Input.Text)
		if err != nil {
			return Stay, err
		}
		w.Number = number
		return fc.Next(ctx, int(state.CardStepHolder), "👤 Karta egasining ismini kiriting:", nil)

	case state.CardStepHolder:
		holder, err := requireText(fc.Input)
		if err != nil {
			return Stay, err
		}
		card := domain.CardInfo{Number: w.Number, Holder: holder}
		if err := fc.Deps().Settings.UpdateCard(ctx, card); err != nil {
			return Stay, err
		}
		return fc.Done(ctx, fmt.Sprintf("✅ Karta ma'lumotlari yangilandi!\n\n💳 %s\n👤 %s", card.Number, card.Holder))
	}

	return Stay, nil
}

// normalizeCardNumber accepts 16 digits with optional spaces and groups them by four.
func normalizeCardNumber(text string) (string, error) {
	digits := strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	if len(digits) != 16 {
		return "", apperrors.NewValidationError("❌ Karta raqami 16 ta raqamdan iborat bo'lishi kerak!")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", apperrors.NewValidationError("❌ Karta raqami faqat raqamlardan iborat bo'lishi kerak!")
		}
	}
	return digits[0:4] + " " + digits[4:8] + " " + digits[8:12] + " " + digits[12:16], nil
}

type contactMessageFlow struct{}

func (contactMessageFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "📞 Yangi aloqa xabarini yuboring:", keyboard.Cancel())
}

func (contactMessageFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	text, err := requireText(fc.Input)
	if err != nil {
		return Stay, err
	}
	if err := fc.Deps().Settings.UpdateContactMessage(ctx, text); err != nil {
		return Stay, err
	}
	return fc.Done(ctx, "✅ Aloqa xabari yangilandi!")
}
