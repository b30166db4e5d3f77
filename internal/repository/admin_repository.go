package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// AdminRepository persists admin panel accounts.
type AdminRepository interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.Admin, error)
	Create(ctx context.Context, admin *domain.Admin) error
	// EnsureSuperAdmin inserts or promotes telegramID to a super admin.
	EnsureSuperAdmin(ctx context.Context, telegramID int64) error
	List(ctx context.Context) ([]domain.Admin, error)
	Delete(ctx context.Context, telegramID int64) error
}

const adminColumns = `id, telegram_id, username, role, can_delete_content, created_by, created_at`

type adminRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewAdminRepository(db *sql.DB, log *slog.Logger) AdminRepository {
	return &adminRepository{db: db, log: log}
}

func scanAdmin(row rowScanner) (*domain.Admin, error) {
	var (
		admin     domain.Admin
		role      string
		createdBy sql.NullInt64
	)
	if err := row.Scan(
		&admin.ID,
		&admin.TelegramID,
		&admin.Username,
		&role,
		&admin.CanDeleteContent,
		&createdBy,
		&admin.CreatedAt,
	); err != nil {
		return nil, err
	}

	admin.Role = domain.Role(role)
	if createdBy.Valid {
		value := createdBy.Int64
		admin.CreatedBy = &value
	}
	return &admin, nil
}

func (r *adminRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE telegram_id = $1`

	admin, err := scanAdmin(r.db.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.log.Error("failed to fetch admin", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		return nil, fmt.Errorf("select admin: %w", err)
	}

	return admin, nil
}

// Create inserts the admin. A duplicate Telegram id yields ErrDuplicate.
func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
		INSERT INTO admins (telegram_id, username, role, can_delete_content, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		admin.TelegramID,
		admin.Username,
		string(admin.Role),
		admin.CanDeleteContent,
		admin.CreatedBy,
	).Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.log.Error("failed to create admin", slog.Int64("telegram_id", admin.TelegramID), slog.Any("error", err))
		return fmt.Errorf("insert admin: %w", err)
	}

	return nil
}

func (r *adminRepository) EnsureSuperAdmin(ctx context.Context, telegramID int64) error {
	const query = `
		INSERT INTO admins (telegram_id, role, can_delete_content)
		VALUES ($1, 'SUPERADMIN', TRUE)
		ON CONFLICT (telegram_id) DO UPDATE SET role = 'SUPERADMIN', can_delete_content = TRUE
	`

	if _, err := r.db.ExecContext(ctx, query, telegramID); err != nil {
		r.log.Error("failed to ensure super admin", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		return fmt.Errorf("ensure super admin: %w", err)
	}
	return nil
}

func (r *adminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Error("failed to list admins", slog.Any("error", err))
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var admins []domain.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, *admin)
	}
	return admins, rows.Err()
}

func (r *adminRepository) Delete(ctx context.Context, telegramID int64) error {
	return execAffecting(ctx, r.db, r.log, "delete admin", `DELETE FROM admins WHERE telegram_id = $1`, telegramID)
}
