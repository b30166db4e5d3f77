package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// FieldRepository persists content fields.
type FieldRepository interface {
	ListActive(ctx context.Context) ([]domain.Field, error)
	FindByID(ctx context.Context, id int64) (*domain.Field, error)
	Create(ctx context.Context, field *domain.Field) error
	SetActive(ctx context.Context, id int64, active bool) error
}

const fieldColumns = `id, name, channel_id, channel_link, is_active, created_at`

type fieldRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewFieldRepository(db *sql.DB, log *slog.Logger) FieldRepository {
	return &fieldRepository{db: db, log: log}
}

func scanField(row rowScanner) (*domain.Field, error) {
	var field domain.Field
	if err := row.Scan(
		&field.ID,
		&field.Name,
		&field.ChannelID,
		&field.ChannelLink,
		&field.IsActive,
		&field.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *fieldRepository) ListActive(ctx context.Context) ([]domain.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM fields WHERE is_active ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Error("failed to list fields", slog.Any("error", err))
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	var fields []domain.Field
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		fields = append(fields, *field)
	}
	return fields, rows.Err()
}

func (r *fieldRepository) FindByID(ctx context.Context, id int64) (*domain.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM fields WHERE id = $1`

	field, err := scanField(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.log.Error("failed to fetch field", slog.Int64("field_id", id), slog.Any("error", err))
		return nil, fmt.Errorf("select field: %w", err)
	}
	return field, nil
}

func (r *fieldRepository) Create(ctx context.Context, field *domain.Field) error {
	const query = `
		INSERT INTO fields (name, channel_id, channel_link, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, is_active, created_at
	`

	if err := r.db.QueryRowContext(ctx, query, field.Name, field.ChannelID, field.ChannelLink).
		Scan(&field.ID, &field.IsActive, &field.CreatedAt); err != nil {
		r.log.Error("failed to create field", slog.String("name", field.Name), slog.Any("error", err))
		return fmt.Errorf("insert field: %w", err)
	}
	return nil
}

func (r *fieldRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return execAffecting(ctx, r.db, r.log, "set field active", `UPDATE fields SET is_active = $2 WHERE id = $1`, id, active)
}
