package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Pruner forgets idle limiter keys.
type Pruner interface {
	Prune(idle time.Duration) int
}

// Cleaner periodically drops the windows of users that went quiet. Redis
// windows expire on their own; the in-memory ones need this sweep.
type Cleaner struct {
	limiter  Pruner
	log      *slog.Logger
	interval time.Duration
}

// NewCleaner sweeps limiter every interval, forgetting keys idle for longer
// than one interval.
func NewCleaner(limiter Pruner, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		limiter:  limiter,
		log:      log,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c.limiter == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped")
			return
		case <-ticker.C:
			if removed := c.limiter.Prune(c.interval); removed > 0 {
				c.log.Debug("rate limit windows pruned", slog.Int("removed", removed))
			}
		}
	}
}
