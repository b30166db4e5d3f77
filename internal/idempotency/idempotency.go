// Package idempotency makes sure a Telegram update redelivered by a webhook
// retry or a second replica is handled only once.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultLease bounds how long a claim survives a crashed handler.
	DefaultLease = 5 * time.Minute
	// DefaultRetention is how long a handled update is remembered.
	DefaultRetention = 24 * time.Hour
)

// Outcome tells the caller what Run did with the update.
type Outcome int

const (
	OutcomeRan Outcome = iota
	OutcomeDuplicate
	OutcomeInProgress
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRan:
		return "ran"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeInProgress:
		return "in_progress"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Manager runs an update handler at most once per key.
type Manager interface {
	Run(ctx context.Context, key string, fn func(ctx context.Context) error) (Outcome, error)
}

type manager struct {
	store     Store
	lease     time.Duration
	retention time.Duration
	log       *slog.Logger
}

// NewManager builds a Manager over store with the default lease and retention.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store:     store,
		lease:     DefaultLease,
		retention: DefaultRetention,
		log:       log.With(slog.String("component", "idempotency")),
	}
}

// Run claims key and calls fn. A key that is already done or claimed is not
// run again. A failed fn releases the claim so a redelivery can retry it.
// Store errors are returned before fn runs; after fn ran they are only logged.
func (m *manager) Run(ctx context.Context, key string, fn func(ctx context.Context) error) (Outcome, error) {
	claimed, err := m.store.Claim(ctx, key, m.lease)
	if err != nil {
		return OutcomeRan, fmt.Errorf("claim update %s: %w", key, err)
	}

	if !claimed {
		status, err := m.store.Status(ctx, key)
		if err != nil {
			return OutcomeRan, fmt.Errorf("read update %s: %w", key, err)
		}
		if status == StatusDone {
			return OutcomeDuplicate, nil
		}
		return OutcomeInProgress, nil
	}

	if err := fn(ctx); err != nil {
		if releaseErr := m.store.Release(ctx, key); releaseErr != nil {
			m.log.Warn("failed to release update claim", slog.String("key", key), slog.Any("error", releaseErr))
		}
		return OutcomeRan, err
	}

	if err := m.store.Complete(ctx, key, m.retention); err != nil {
		m.log.Warn("failed to mark update done", slog.String("key", key), slog.Any("error", err))
	}
	return OutcomeRan, nil
}

// GenerateKey hashes parts into a fixed-length key.
func GenerateKey(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}
	return hex.EncodeToString(h.Sum(nil))
}
