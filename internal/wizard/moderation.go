package wizard

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/state"
)

const BlockReason = "Admin tomonidan bloklandi"

var userQueryPattern = regexp.MustCompile(`^(@[A-Za-z0-9_]{3,}|\d+)$`)

// moderation describes one of the three user moderation wizards.
type moderation struct {
	title   string
	confirm string
	unique  string
	// check rejects users the action does not apply to.
	check func(u *domain.User) error
	apply func(ctx context.Context, users UserService, userID int64) error
	done  string
}

var (
	blockModeration = moderation{
		title:   "🚫 Foydalanuvchini bloklash",
		confirm: "🚫 Bloklash",
		unique:  keyboard.CbConfirmBlock,
		check: func(u *domain.User) error {
			if u.IsBlocked {
				return apperrors.NewValidationError("❌ Bu foydalanuvchi allaqachon bloklangan!")
			}
			return nil
		},
		apply: func(ctx context.Context, users UserService, userID int64) error {
			return users.Block(ctx, userID, BlockReason)
		},
		done: "✅ Foydalanuvchi bloklandi!",
	}
	unblockModeration = moderation{
		title:   "✅ Foydalanuvchini blokdan ochish",
		confirm: "✅ Blokdan ochish",
		unique:  keyboard.CbConfirmUnblock,
		check: func(u *domain.User) error {
			if !u.IsBlocked {
				return apperrors.NewValidationError("❌ Bu foydalanuvchi bloklanmagan!")
			}
			return nil
		},
		apply: func(ctx context.Context, users UserService, userID int64) error {
			return users.Unblock(ctx, userID)
		},
		done: "✅ Foydalanuvchi blokdan ochildi!",
	}
	unbanModeration = moderation{
		title:   "💎 Premium banni olib tashlash",
		confirm: "✅ Banni olib tashlash",
		unique:  keyboard.CbConfirmUnban,
		check: func(u *domain.User) error {
			if !u.IsPremiumBanned {
				return apperrors.NewValidationError("❌ Bu foydalanuvchi premiumdan chetlatilmagan!")
			}
			return nil
		},
		apply: func(ctx context.Context, users UserService, userID int64) error {
			return users.UnbanPremium(ctx, userID)
		},
		done: "✅ Premium ban olib tashlandi!",
	}
)

func (m moderation) begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, m.title+"\n\n🔎 Foydalanuvchi ID si yoki @username ni kiriting:", keyboard.Cancel())
}

func (m moderation) handle(ctx context.Context, fc *FlowContext, step *state.ModerationStep, target *state.UserTarget) (Outcome, error) {
	if *step != state.ModerationStepLookup {
		return Stay, nil
	}

	query := strings.TrimSpace(fc.Input.Text)
	if !userQueryPattern.MatchString(query) {
		return Stay, apperrors.NewValidationError("❌ Noto'g'ri format! Telegram ID yoki @username kiriting.")
	}

	user, err := fc.Deps().Users.Lookup(ctx, query)
	if apperrors.IsNotFound(err) {
		return Stay, apperrors.NewNotFoundError("user", "❌ Foydalanuvchi topilmadi!\n\nBoshqa ID yoki @username kiriting:")
	}
	if err != nil {
		return Stay, err
	}
	if err := m.check(user); err != nil {
		return Stay, err
	}

	*target = state.UserTarget{UserID: user.ID, TelegramID: user.TelegramID, Username: user.Username}
	*step = state.ModerationStepConfirm

	text := fmt.Sprintf("%s\n\n👤 %s\n🆔 %d\n\nTasdiqlaysizmi?", m.title, user.DisplayName(), user.TelegramID)
	if err := fc.Reply(ctx, text, keyboard.ConfirmCancel(m.confirm, m.unique, user.ID)); err != nil {
		return Stay, err
	}
	return Save, nil
}

func (m moderation) callback(ctx context.Context, fc *FlowContext, cb Callback, step state.ModerationStep, target state.UserTarget) (Outcome, error) {
	if step != state.ModerationStepConfirm || cb.Unique != m.unique {
		return Stay, nil
	}
	if cb.Data != keyboard.IDPayload(target.UserID) {
		return Stay, apperrors.NewStateError("confirmation does not match the selected user")
	}

	if err := m.apply(ctx, fc.Deps().Users, target.UserID); err != nil {
		return Stay, err
	}
	return fc.Done(ctx, fmt.Sprintf("%s\n\n🆔 %d", m.done, target.TelegramID))
}

type blockUserFlow struct{}

func (blockUserFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return blockModeration.begin(ctx, fc)
}

func (blockUserFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.BlockUserWizard)
	return blockModeration.handle(ctx, fc, &w.Step, &w.Target)
}

func (blockUserFlow) Callback(ctx context.Context, fc *FlowContext, cb Callback) (Outcome, error) {
	w := fc.Session.Wizard.(*state.BlockUserWizard)
	return blockModeration.callback(ctx, fc, cb, w.Step, w.Target)
}

type unblockUserFlow struct{}

func (unblockUserFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return unblockModeration.begin(ctx, fc)
}

func (unblockUserFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.UnblockUserWizard)
	return unblockModeration.handle(ctx, fc, &w.Step, &w.Target)
}

func (unblockUserFlow) Callback(ctx context.Context, fc *FlowContext, cb Callback) (Outcome, error) {
	w := fc.Session.Wizard.(*state.UnblockUserWizard)
	return unblockModeration.callback(ctx, fc, cb, w.Step, w.Target)
}

type unbanPremiumFlow struct{}

func (unbanPremiumFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return unbanModeration.begin(ctx, fc)
}

func (unbanPremiumFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.UnbanPremiumWizard)
	return unbanModeration.handle(ctx, fc, &w.Step, &w.Target)
}

func (unbanPremiumFlow) Callback(ctx context.Context, fc *FlowContext, cb Callback) (Outcome, error) {
	w := fc.Session.Wizard.(*state.UnbanPremiumWizard)
	return unbanModeration.callback(ctx, fc, cb, w.Step, w.Target)
}
