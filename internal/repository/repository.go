// Package repository implements the Postgres storage of the bot.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// uniqueViolation is the Postgres error code of a unique constraint failure.
const uniqueViolation = "23505"

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	value := s.String
	return &value
}

// isUniqueViolation reports whether err comes from a unique constraint.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// execAffecting runs a write that must touch at least one row. A write that
// matched nothing reports sql.ErrNoRows.
func execAffecting(ctx context.Context, db execer, log *slog.Logger, operation, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		if log != nil {
			log.Error("failed to "+operation, slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", operation, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func encodeMessages(messages []domain.ChannelMessage) ([]byte, error) {
	if messages == nil {
		messages = []domain.ChannelMessage{}
	}
	return json.Marshal(messages)
}

func decodeMessages(raw []byte) ([]domain.ChannelMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var messages []domain.ChannelMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("decode channel messages: %w", err)
	}
	return messages, nil
}

// withTx runs fn inside a transaction and commits when it returns nil.
func withTx(ctx context.Context, db *sql.DB, log *slog.Logger, operation string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", operation, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && log != nil {
			log.Error("failed to rollback transaction", slog.String("operation", operation), slog.Any("error", rbErr))
		}
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrDuplicate) {
			return err
		}
		if log != nil {
			log.Error("failed to "+operation, slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", operation, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", operation, err)
	}
	return nil
}
