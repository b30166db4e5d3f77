package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// ChannelRepository persists mandatory and database channels.
type ChannelRepository interface {
	ListActiveMandatory(ctx context.Context) ([]domain.MandatoryChannel, error)
	ListMandatory(ctx context.Context) ([]domain.MandatoryChannel, error)
	// ListMandatoryWithHistory returns channels that still have recorded members.
	ListMandatoryWithHistory(ctx context.Context) ([]domain.MandatoryChannel, error)
	FindMandatory(ctx context.Context, id int64) (*domain.MandatoryChannel, error)
	FindActiveMandatoryByChatID(ctx context.Context, chatID string) (*domain.MandatoryChannel, error)
	FindMandatoryByLink(ctx context.Context, link string) (*domain.MandatoryChannel, error)
	CreateMandatory(ctx context.Context, ch *domain.MandatoryChannel) error
	SetMandatoryActive(ctx context.Context, id int64, active bool) error
	// Reorder assigns sort positions following the order of ids.
	Reorder(ctx context.Context, ids []int64) error
	RecordMember(ctx context.Context, channelID, userID int64) (bool, error)
	IncrementMembers(ctx context.Context, channelID int64) (*domain.MandatoryChannel, error)
	AdjustPendingRequests(ctx context.Context, channelID int64, delta int) error

	ListActiveDatabase(ctx context.Context) ([]domain.DatabaseChannel, error)
	CreateDatabase(ctx context.Context, ch *domain.DatabaseChannel) error
	DeleteDatabase(ctx context.Context, id int64) error
}

const mandatoryColumns = `id, channel_id, channel_name, channel_link, type, is_active, member_limit,
	current_members, pending_requests, sort_order, created_at`

const databaseColumns = `id, channel_id, channel_name, channel_link, is_active, created_at`

type channelRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewChannelRepository(db *sql.DB, log *slog.Logger) ChannelRepository {
	return &channelRepository{db: db, log: log}
}

func scanMandatory(row rowScanner) (*domain.MandatoryChannel, error) {
	var (
		ch    domain.MandatoryChannel
		kind  string
		limit sql.NullInt64
	)
	if err := row.Scan(
		&ch.ID,
		&ch.ChannelID,
		&ch.ChannelName,
		&ch.ChannelLink,
		&kind,
		&ch.IsActive,
		&limit,
		&ch.CurrentMembers,
		&ch.PendingRequests,
		&ch.Order,
		&ch.CreatedAt,
	); err != nil {
		return nil, err
	}

	ch.Type = domain.ChannelType(kind)
	if limit.Valid {
		value := int(limit.Int64)
		ch.MemberLimit = &value
	}
	return &ch, nil
}

func (r *channelRepository) listMandatory(ctx context.Context, where string, args ...any) ([]domain.MandatoryChannel, error) {
	query := `SELECT ` + mandatoryColumns + ` FROM mandatory_channels ` + where + ` ORDER BY sort_order, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list mandatory channels", slog.Any("error", err))
		return nil, fmt.Errorf("list mandatory channels: %w", err)
	}
	defer rows.Close()

	var channels []domain.MandatoryChannel
	for rows.Next() {
		ch, err := scanMandatory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mandatory channel: %w", err)
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

func (r *channelRepository) ListActiveMandatory(ctx context.Context) ([]domain.MandatoryChannel, error) {
	return r.listMandatory(ctx, `WHERE is_active`)
}

func (r *channelRepository) ListMandatory(ctx context.Context) ([]domain.MandatoryChannel, error) {
	return r.listMandatory(ctx, ``)
}

func (r *channelRepository) ListMandatoryWithHistory(ctx context.Context) ([]domain.MandatoryChannel, error) {
	return r.listMandatory(ctx, `WHERE EXISTS (SELECT 1 FROM channel_members m WHERE m.channel_id = mandatory_channels.id)`)
}

func (r *channelRepository) findMandatory(ctx context.Context, where string, arg any) (*domain.MandatoryChannel, error) {
	query := `SELECT ` + mandatoryColumns + ` FROM mandatory_channels WHERE ` + where + ` ORDER BY sort_order, id LIMIT 1`

	ch, err := scanMandatory(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.log.Error("failed to fetch mandatory channel", slog.String("where", where), slog.Any("error", err))
		return nil, fmt.Errorf("select mandatory channel: %w", err)
	}
	return ch, nil
}

func (r *channelRepository) FindMandatory(ctx context.Context, id int64) (*domain.MandatoryChannel, error) {
	return r.findMandatory(ctx, `id = $1`, id)
}

func (r *channelRepository) FindActiveMandatoryByChatID(ctx context.Context, chatID string) (*domain.MandatoryChannel, error) {
	return r.findMandatory(ctx, `is_active AND channel_id = $1`, chatID)
}

func (r *channelRepository) FindMandatoryByLink(ctx context.Context, link string) (*domain.MandatoryChannel, error) {
	return r.findMandatory(ctx, `channel_link = $1`, link)
}

// CreateMandatory appends the channel after the current last position.
func (r *channelRepository) CreateMandatory(ctx context.Context, ch *domain.MandatoryChannel) error {
	const query = `
		INSERT INTO mandatory_channels (channel_id, channel_name, channel_link, type, is_active, member_limit, sort_order)
		VALUES ($1, $2, $3, $4, TRUE, $5, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM mandatory_channels))
		RETURNING id, is_active, sort_order, created_at
	`

	var limit sql.NullInt64
	if ch.MemberLimit != nil {
		limit = sql.NullInt64{Int64: int64(*ch.MemberLimit), Valid: true}
	}

	if err := r.db.QueryRowContext(ctx, query, ch.ChannelID, ch.ChannelName, ch.ChannelLink, string(ch.Type), limit).
		Scan(&ch.ID, &ch.IsActive, &ch.Order, &ch.CreatedAt); err != nil {
		r.log.Error("failed to create mandatory channel", slog.String("channel_id", ch.ChannelID), slog.Any("error", err))
		return fmt.Errorf("insert mandatory channel: %w", err)
	}
	return nil
}

func (r *channelRepository) SetMandatoryActive(ctx context.Context, id int64, active bool) error {
	return execAffecting(ctx, r.db, r.log, "set mandatory channel active",
		`UPDATE mandatory_channels SET is_active = $2 WHERE id = $1`, id, active)
}

func (r *channelRepository) Reorder(ctx context.Context, ids []int64) error {
	return withTx(ctx, r.db, r.log, "reorder mandatory channels", func(tx *sql.Tx) error {
		for i, id := range ids {
			if err := execAffecting(ctx, tx, nil, "reorder mandatory channel",
				`UPDATE mandatory_channels SET sort_order = $2 WHERE id = $1`, id, i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *channelRepository) RecordMember(ctx context.Context, channelID, userID int64) (bool, error) {
	const query = `
		INSERT INTO channel_members (channel_id, user_id) VALUES ($1, $2)
		ON CONFLICT (channel_id, user_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, channelID, userID)
	if err != nil {
		r.log.Error("failed to record channel member",
			slog.Int64("channel_id", channelID), slog.Int64("user_id", userID), slog.Any("error", err))
		return false, fmt.Errorf("insert channel member: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert channel member: rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *channelRepository) IncrementMembers(ctx context.Context, channelID int64) (*domain.MandatoryChannel, error) {
	query := `
		UPDATE mandatory_channels
		SET current_members = current_members + 1,
			is_active = is_active AND (member_limit IS NULL OR current_members + 1 < member_limit)
		WHERE id = $1
		RETURNING ` + mandatoryColumns

	ch, err := scanMandatory(r.db.QueryRowContext(ctx, query, channelID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.log.Error("failed to increment channel members", slog.Int64("channel_id", channelID), slog.Any("error", err))
		return nil, fmt.Errorf("increment channel members: %w", err)
	}
	return ch, nil
}

// AdjustPendingRequests moves the pending counter by delta without going below zero.
func (r *channelRepository) AdjustPendingRequests(ctx context.Context, channelID int64, delta int) error {
	return execAffecting(ctx, r.db, r.log, "adjust pending requests",
		`UPDATE mandatory_channels SET pending_requests = GREATEST(pending_requests + $2, 0) WHERE id = $1`,
		channelID, delta)
}

func (r *channelRepository) ListActiveDatabase(ctx context.Context) ([]domain.DatabaseChannel, error) {
	query := `SELECT ` + databaseColumns + ` FROM database_channels WHERE is_active ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Error("failed to list database channels", slog.Any("error", err))
		return nil, fmt.Errorf("list database channels: %w", err)
	}
	defer rows.Close()

	var channels []domain.DatabaseChannel
	for rows.Next() {
		var ch domain.DatabaseChannel
		if err := rows.Scan(&ch.ID, &ch.ChannelID, &ch.ChannelName, &ch.ChannelLink, &ch.IsActive, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan database channel: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// CreateDatabase inserts the channel. An existing chat id yields ErrDuplicate.
func (r *channelRepository) CreateDatabase(ctx context.Context, ch *domain.DatabaseChannel) error {
	const query = `
		INSERT INTO database_channels (channel_id, channel_name, channel_link, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, is_active, created_at
	`

	err := r.db.QueryRowContext(ctx, query, ch.ChannelID, ch.ChannelName, ch.ChannelLink).
		Scan(&ch.ID, &ch.IsActive, &ch.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.log.Error("failed to create database channel", slog.String("channel_id", ch.ChannelID), slog.Any("error", err))
		return fmt.Errorf("insert database channel: %w", err)
	}
	return nil
}

func (r *channelRepository) DeleteDatabase(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, r.log, "delete database channel", `DELETE FROM database_channels WHERE id = $1`, id)
}
