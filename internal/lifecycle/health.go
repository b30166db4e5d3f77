package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

var errNotReady = errors.New("not ready")

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes reports the process as live once created and ready between
// MarkReady and MarkNotReady.
type Probes struct {
	ready atomic.Bool
	log   *slog.Logger
}

// NewProbes creates a new Probes instance.
func NewProbes(log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{log: log}
}

// MarkReady is called once the bot accepts updates.
func (p *Probes) MarkReady() {
	p.ready.Store(true)
	p.log.Info("service marked ready")
}

// MarkNotReady is called when shutdown begins.
func (p *Probes) MarkNotReady() {
	p.ready.Store(false)
	p.log.Info("service marked not ready")
}

// Liveness always reports success while the process serves HTTP.
func (p *Probes) Liveness(ctx context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

// Readiness fails until MarkReady and after MarkNotReady.
func (p *Probes) Readiness(ctx context.Context) error {
	p.log.Debug("readiness probe called")
	if !p.ready.Load() {
		return errNotReady
	}
	return nil
}
