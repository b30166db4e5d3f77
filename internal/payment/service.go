// Package payment handles premium purchases made by card transfer.
package payment

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/repository"
)

// BanThreshold is the number of rejected receipts that bans a user from premium.
const BanThreshold = 2

// Service reviews receipts and grants premium.
type Service struct {
	payments repository.PaymentRepository
	users    repository.UserRepository
	log      *slog.Logger
	now      func() time.Time
}

func NewService(payments repository.PaymentRepository, users repository.UserRepository, log *slog.Logger) *Service {
	return &Service{payments: payments, users: users, log: log, now: time.Now}
}

// Submit records a pending payment for the user's receipt.
func (s *Service) Submit(ctx context.Context, userTelegramID, amount int64, durationDays int, receiptFileID string) (*domain.Payment, error) {
	if amount <= 0 || durationDays <= 0 || receiptFileID == "" {
		return nil, apperrors.NewValidationError("❌ To'lov ma'lumotlari noto'g'ri!")
	}

	user, err := s.users.FindByTelegramID(ctx, userTelegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("user", "❌ Avval /start buyrug'ini yuboring.")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	if user.IsPremiumBanned {
		return nil, apperrors.NewValidationError("🚫 Siz premium xarid qilishdan chetlatilgansiz.")
	}

	payment := &domain.Payment{
		UserID:         user.ID,
		UserTelegramID: user.TelegramID,
		UserFirstName:  user.FirstName,
		Amount:         amount,
		DurationDays:   durationDays,
		ReceiptFileID:  receiptFileID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	s.log.Info("payment submitted",
		slog.Int64("payment_id", payment.ID),
		slog.Int64("telegram_id", userTelegramID),
		slog.Int64("amount", amount),
	)
	return payment, nil
}

// Approve accepts a pending payment and extends the user's premium by
// durationDays, counting from the current expiry when it is still active.
func (s *Service) Approve(ctx context.Context, paymentID, adminTelegramID int64, durationDays int) (*domain.Payment, error) {
	if durationDays <= 0 {
		return nil, apperrors.NewValidationError("❌ Kunlar soni musbat bo'lishi kerak!")
	}

	payment, err := s.resolve(ctx, paymentID, domain.PaymentApproved, adminTelegramID, durationDays, "")
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, payment.UserID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	now := s.now().UTC()
	until := PremiumUntil(user, now, durationDays)
	if err := s.users.GrantPremium(ctx, user.ID, until); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	s.log.Info("payment approved",
		slog.Int64("payment_id", payment.ID),
		slog.Int64("admin_id", adminTelegramID),
		slog.Time("premium_until", until),
	)
	return payment, nil
}

// PremiumUntil returns the expiry after adding days to the user's premium.
func PremiumUntil(user *domain.User, now time.Time, days int) time.Time {
	start := now
	if user.HasActivePremium(now) && user.PremiumExpiresAt != nil {
		start = *user.PremiumExpiresAt
	}
	return start.Add(time.Duration(days) * 24 * time.Hour)
}

// Reject declines a pending payment and counts it against the user. The
// BanThreshold-th rejection bans the user from premium.
func (s *Service) Reject(ctx context.Context, paymentID, adminTelegramID int64, reason string) (*domain.RejectionOutcome, error) {
	if reason == "" {
		return nil, apperrors.NewValidationError("❌ Rad etish sababini kiriting!")
	}

	payment, err := s.resolve(ctx, paymentID, domain.PaymentRejected, adminTelegramID, 0, reason)
	if err != nil {
		return nil, err
	}

	count, banned, err := s.users.RecordRejection(ctx, payment.UserID, BanThreshold)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	s.log.Info("payment rejected",
		slog.Int64("payment_id", payment.ID),
		slog.Int64("admin_id", adminTelegramID),
		slog.Int("ban_count", count),
		slog.Bool("banned", banned),
	)
	return &domain.RejectionOutcome{Payment: payment, BanCount: count, Banned: banned}, nil
}

func (s *Service) resolve(ctx context.Context, paymentID int64, status domain.PaymentStatus, adminTelegramID int64, days int, reason string) (*domain.Payment, error) {
	payment, err := s.payments.Resolve(ctx, paymentID, status, adminTelegramID, days, reason)
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewDatabaseError(err)
	}

	if _, findErr := s.payments.FindByID(ctx, paymentID); errors.Is(findErr, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("payment", "❌ To'lov topilmadi!")
	}
	return nil, apperrors.NewStateError("payment already processed")
}

func (s *Service) Payment(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("payment", "❌ To'lov topilmadi!")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return payment, nil
}

func (s *Service) Pending(ctx context.Context, limit int) ([]domain.Payment, error) {
	payments, err := s.payments.ListPending(ctx, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return payments, nil
}

// ByStatus lists the latest payments with status.
func (s *Service) ByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]domain.Payment, error) {
	payments, err := s.payments.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return payments, nil
}

func (s *Service) History(ctx context.Context, userID int64, limit int) ([]domain.Payment, error) {
	payments, err := s.payments.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return payments, nil
}

func (s *Service) Statistics(ctx context.Context) (domain.PaymentStatistics, error) {
	stats, err := s.payments.Statistics(ctx)
	if err != nil {
		return stats, apperrors.NewDatabaseError(err)
	}
	return stats, nil
}

// ExpirePremiums revokes every premium that has ended and returns the users
// that lost it.
func (s *Service) ExpirePremiums(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ExpirePremiums(ctx, s.now().UTC())
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	if len(users) > 0 {
		s.log.Info("premium subscriptions expired", slog.Int("count", len(users)))
	}
	return users, nil
}
