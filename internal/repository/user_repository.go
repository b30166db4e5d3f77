package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdateLanguage(ctx context.Context, telegramID int64, lang string) error
	SetBlocked(ctx context.Context, id int64, blocked bool, reason string) error
	GrantPremium(ctx context.Context, id int64, until time.Time) error
	// RecordRejection bumps the rejection counter and bans the user from
	// premium once the counter reaches banAt.
	RecordRejection(ctx context.Context, id int64, banAt int) (int, bool, error)
	UnbanPremium(ctx context.Context, id int64) error
	// ExpirePremiums revokes every premium that ended before now and returns
	// the affected users.
	ExpirePremiums(ctx context.Context, now time.Time) ([]domain.User, error)
	ListReachable(ctx context.Context) ([]domain.User, error)
	ListPremiumBanned(ctx context.Context) ([]domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)
	Statistics(ctx context.Context, now time.Time) (domain.UserStatistics, error)
}

const userColumns = `id, telegram_id, first_name, last_name, username, language_code, has_telegram_premium,
	is_premium, premium_expires_at, is_blocked, block_reason, blocked_at, premium_ban_count,
	is_premium_banned, premium_banned_at, created_at, last_active_at`

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user           domain.User
		premiumExpires sql.NullTime
		blockedAt      sql.NullTime
		bannedAt       sql.NullTime
	)
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.LanguageCode,
		&user.HasTelegramPremium,
		&user.IsPremium,
		&premiumExpires,
		&user.IsBlocked,
		&user.BlockReason,
		&blockedAt,
		&user.PremiumBanCount,
		&user.IsPremiumBanned,
		&bannedAt,
		&user.CreatedAt,
		&user.LastActiveAt,
	); err != nil {
		return nil, err
	}

	user.PremiumExpiresAt = nullTime(premiumExpires)
	user.BlockedAt = nullTime(blockedAt)
	user.PremiumBannedAt = nullTime(bannedAt)
	return &user, nil
}

func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		r.logError("failed to fetch user", err, slog.String("where", where))
		return nil, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// FindByID retrieves a user by the internal identifier.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByTelegramID retrieves a user by their Telegram identifier.
func (r *userRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	return r.findOne(ctx, "telegram_id = $1", telegramID)
}

// FindByUsername matches the username case-insensitively, with or without '@'.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	return r.findOne(ctx, "LOWER(username) = LOWER($1)", username)
}

// Create persists a new user record and fills its ID.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (telegram_id, first_name, last_name, username, language_code,
			has_telegram_premium, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (telegram_id) DO UPDATE SET last_active_at = EXCLUDED.last_active_at
		RETURNING id
	`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.TelegramID,
		user.FirstName,
		user.LastName,
		user.Username,
		user.LanguageCode,
		user.HasTelegramPremium,
		user.CreatedAt,
		user.LastActiveAt,
	).Scan(&user.ID); err != nil {
		r.logError("failed to create user", err, slog.Int64("telegram_id", user.TelegramID))
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// UpdateProfile refreshes the Telegram profile fields and the activity time.
func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	const query = `
		UPDATE users
		SET first_name = $2, last_name = $3, username = $4, has_telegram_premium = $5, last_active_at = $6
		WHERE id = $1
	`

	return r.exec(ctx, "update user profile", query,
		user.ID, user.FirstName, user.LastName, user.Username, user.HasTelegramPremium, user.LastActiveAt)
}

func (r *userRepository) UpdateLanguage(ctx context.Context, telegramID int64, lang string) error {
	return r.exec(ctx, "update user language", `UPDATE users SET language_code = $2 WHERE telegram_id = $1`, telegramID, lang)
}

func (r *userRepository) SetBlocked(ctx context.Context, id int64, blocked bool, reason string) error {
	const query = `
		UPDATE users
		SET is_blocked = $2,
			block_reason = CASE WHEN $2 THEN $3 ELSE '' END,
			blocked_at = CASE WHEN $2 THEN NOW() ELSE NULL END
		WHERE id = $1
	`

	return r.exec(ctx, "set user blocked", query, id, blocked, reason)
}

func (r *userRepository) GrantPremium(ctx context.Context, id int64, until time.Time) error {
	return r.exec(ctx, "grant premium",
		`UPDATE users SET is_premium = TRUE, premium_expires_at = $2 WHERE id = $1`, id, until)
}

func (r *userRepository) RecordRejection(ctx context.Context, id int64, banAt int) (int, bool, error) {
	const query = `
		UPDATE users
		SET premium_ban_count = premium_ban_count + 1,
			is_premium_banned = is_premium_banned OR premium_ban_count + 1 >= $2,
			premium_banned_at = CASE
				WHEN NOT is_premium_banned AND premium_ban_count + 1 >= $2 THEN NOW()
				ELSE premium_banned_at
			END
		WHERE id = $1
		RETURNING premium_ban_count, is_premium_banned
	`

	var (
		count  int
		banned bool
	)
	if err := r.db.QueryRowContext(ctx, query, id, banAt).Scan(&count, &banned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, sql.ErrNoRows
		}
		r.logError("failed to record payment rejection", err, slog.Int64("user_id", id))
		return 0, false, fmt.Errorf("record rejection: %w", err)
	}

	return count, banned, nil
}

func (r *userRepository) UnbanPremium(ctx context.Context, id int64) error {
	return r.exec(ctx, "unban premium",
		`UPDATE users SET is_premium_banned = FALSE, premium_ban_count = 0, premium_banned_at = NULL WHERE id = $1`, id)
}

func (r *userRepository) ExpirePremiums(ctx context.Context, now time.Time) ([]domain.User, error) {
	query := `
		UPDATE users
		SET is_premium = FALSE
		WHERE is_premium AND premium_expires_at IS NOT NULL AND premium_expires_at <= $1
		RETURNING ` + userColumns

	return r.list(ctx, "expire premiums", query, now)
}

func (r *userRepository) ListReachable(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, "list reachable users",
		`SELECT `+userColumns+` FROM users WHERE NOT is_blocked ORDER BY id`)
}

func (r *userRepository) ListPremiumBanned(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, "list premium banned users",
		`SELECT `+userColumns+` FROM users WHERE is_premium_banned ORDER BY premium_banned_at DESC NULLS LAST`)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		r.logError("failed to count users", err)
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	users, err := r.list(ctx, "list users",
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Statistics(ctx context.Context, now time.Time) (domain.UserStatistics, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_premium AND (premium_expires_at IS NULL OR premium_expires_at > $1)),
			COUNT(*) FILTER (WHERE is_blocked),
			COUNT(*) FILTER (WHERE last_active_at > $1 - INTERVAL '1 day'),
			COUNT(*) FILTER (WHERE created_at > $1 - INTERVAL '1 day')
		FROM users
	`

	var stats domain.UserStatistics
	if err := r.db.QueryRowContext(ctx, query, now).Scan(
		&stats.TotalUsers,
		&stats.PremiumUsers,
		&stats.BlockedUsers,
		&stats.ActiveUsers,
		&stats.NewUsers,
	); err != nil {
		r.logError("failed to collect user statistics", err)
		return stats, fmt.Errorf("user statistics: %w", err)
	}

	return stats, nil
}

func (r *userRepository) list(ctx context.Context, operation, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logError("failed to "+operation, err)
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", operation, err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return users, nil
}

func (r *userRepository) exec(ctx context.Context, operation, query string, args ...any) error {
	return execAffecting(ctx, r.db, r.log, operation, query, args...)
}

func (r *userRepository) logError(msg string, err error, attrs ...any) {
	if r.log != nil {
		r.log.Error(msg, append(attrs, slog.Any("error", err))...)
	}
}
