package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner removes sessions whose owners abandoned the wizard.
type Cleaner struct {
	machine  *Machine
	log      *slog.Logger
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(machine *Machine, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		machine:  machine,
		log:      log,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.machine == nil || c.interval <= 0 || c.machine.idleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("session cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			if _, err := c.Sweep(ctx); err != nil {
				c.log.Error("session sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep clears every expired session and returns how many were removed.
func (c *Cleaner) Sweep(ctx context.Context) (int, error) {
	sessions, err := c.machine.storage.GetAllSessions(ctx)
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, session := range sessions {
		if ctx.Err() != nil {
			return cleared, ctx.Err()
		}

		if !c.machine.Expired(session) {
			continue
		}

		if err := c.machine.Clear(ctx, session.OwnerID); err != nil {
			c.log.Error("session cleaner failed to clear session", slog.Int64("owner_id", session.OwnerID), slog.Any("error", err))
			continue
		}

		cleared++
		c.log.Info("abandoned session cleared", slog.Int64("owner_id", session.OwnerID), slog.String("state", string(session.State())))
	}

	return cleared, nil
}
