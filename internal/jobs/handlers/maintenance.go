package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/kino-bot/pkg/metrics"
)

// Sweeper clears abandoned wizard sessions.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type SessionCleanupHandler struct {
	sweeper Sweeper
	log     *slog.Logger
}

func NewSessionCleanupHandler(sweeper Sweeper, log *slog.Logger) *SessionCleanupHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SessionCleanupHandler{sweeper: sweeper, log: log}
}

func (h *SessionCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	cleared, err := h.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	if cleared > 0 {
		metrics.RecordSessionsExpired(cleared)
		h.log.InfoContext(ctx, "expired sessions cleared", slog.Int("count", cleared))
	}
	return nil
}

// RequestPruner drops stale join request records.
type RequestPruner interface {
	PruneRequests(ctx context.Context) (int, error)
}

type JoinCachePruneHandler struct {
	pruner RequestPruner
	log    *slog.Logger
}

func NewJoinCachePruneHandler(pruner RequestPruner, log *slog.Logger) *JoinCachePruneHandler {
	if log == nil {
		log = slog.Default()
	}
	return &JoinCachePruneHandler{pruner: pruner, log: log}
}

func (h *JoinCachePruneHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	pruned, err := h.pruner.PruneRequests(ctx)
	if err != nil {
		return err
	}
	if pruned > 0 {
		h.log.InfoContext(ctx, "join requests pruned", slog.Int("count", pruned))
	}
	return nil
}
