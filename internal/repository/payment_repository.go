package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// PaymentRepository persists premium payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id int64) (*domain.Payment, error)
	// Resolve moves a pending payment to status. It returns sql.ErrNoRows when
	// the payment does not exist or was already processed.
	Resolve(ctx context.Context, id int64, status domain.PaymentStatus, processedBy int64, durationDays int, reason string) (*domain.Payment, error)
	ListPending(ctx context.Context, limit int) ([]domain.Payment, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Payment, error)
	// ListByStatus returns the latest payments with status, newest first.
	ListByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]domain.Payment, error)
	Statistics(ctx context.Context) (domain.PaymentStatistics, error)
}

const paymentSelect = `
	SELECT p.id, p.user_id, u.telegram_id, u.first_name, p.amount, p.duration_days, p.receipt_file_id,
		p.status, p.processed_by, p.rejection_reason, p.created_at, p.processed_at
	FROM payments p
	JOIN users u ON u.id = p.user_id
`

type paymentRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewPaymentRepository(db *sql.DB, log *slog.Logger) PaymentRepository {
	return &paymentRepository{db: db, log: log}
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		payment     domain.Payment
		status      string
		processedBy sql.NullInt64
		processedAt sql.NullTime
	)
	if err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.UserTelegramID,
		&payment.UserFirstName,
		&payment.Amount,
		&payment.DurationDays,
		&payment.ReceiptFileID,
		&status,
		&processedBy,
		&payment.RejectionReason,
		&payment.CreatedAt,
		&processedAt,
	); err != nil {
		return nil, err
	}

	payment.Status = domain.PaymentStatus(status)
	if processedBy.Valid {
		value := processedBy.Int64
		payment.ProcessedBy = &value
	}
	payment.ProcessedAt = nullTime(processedAt)
	return &payment, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
		INSERT INTO payments (user_id, amount, duration_days, receipt_file_id, status)
		VALUES ($1, $2, $3, $4, 'PENDING')
		RETURNING id, status, created_at
	`

	var status string
	if err := r.db.QueryRowContext(ctx, query, payment.UserID, payment.Amount, payment.DurationDays, payment.ReceiptFileID).
		Scan(&payment.ID, &status, &payment.CreatedAt); err != nil {
		r.log.Error("failed to create payment", slog.Int64("user_id", payment.UserID), slog.Any("error", err))
		return fmt.Errorf("insert payment: %w", err)
	}
	payment.Status = domain.PaymentStatus(status)
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := scanPayment(r.db.QueryRowContext(ctx, paymentSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.log.Error("failed to fetch payment", slog.Int64("payment_id", id), slog.Any("error", err))
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return payment, nil
}

func (r *paymentRepository) Resolve(ctx context.Context, id int64, status domain.PaymentStatus, processedBy int64, durationDays int, reason string) (*domain.Payment, error) {
	const query = `
		UPDATE payments
		SET status = $2, processed_by = $3, processed_at = NOW(), rejection_reason = $4,
			duration_days = CASE WHEN $5 > 0 THEN $5 ELSE duration_days END
		WHERE id = $1 AND status = 'PENDING'
	`

	if err := execAffecting(ctx, r.db, r.log, "resolve payment", query, id, string(status), processedBy, reason, durationDays); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *paymentRepository) list(ctx context.Context, where string, args ...any) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, paymentSelect+where, args...)
	if err != nil {
		r.log.Error("failed to list payments", slog.Any("error", err))
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) ListPending(ctx context.Context, limit int) ([]domain.Payment, error) {
	return r.list(ctx, ` WHERE p.status = 'PENDING' ORDER BY p.created_at LIMIT $1`, limit)
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Payment, error) {
	return r.list(ctx, ` WHERE p.user_id = $1 ORDER BY p.created_at DESC LIMIT $2`, userID, limit)
}

func (r *paymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]domain.Payment, error) {
	return r.list(ctx, ` WHERE p.status = $1 ORDER BY COALESCE(p.processed_at, p.created_at) DESC LIMIT $2`, string(status), limit)
}

func (r *paymentRepository) Statistics(ctx context.Context) (domain.PaymentStatistics, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'APPROVED'),
			COUNT(*) FILTER (WHERE status = 'REJECTED'),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'APPROVED'), 0)
		FROM payments
	`

	var stats domain.PaymentStatistics
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalPayments,
		&stats.ApprovedCount,
		&stats.RejectedCount,
		&stats.PendingCount,
		&stats.TotalRevenue,
	); err != nil {
		r.log.Error("failed to collect payment statistics", slog.Any("error", err))
		return stats, fmt.Errorf("payment statistics: %w", err)
	}
	return stats, nil
}
