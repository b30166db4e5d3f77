package ratelimit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_decisions_total",
		Help: "Rate limit decisions by backend and result.",
	}, []string{"backend", "result"})

	backendErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratelimit_backend_errors_total",
		Help: "Redis failures that forced the in-memory fallback.",
	})
)

// AdaptiveLimiter asks the shared Redis limiter first and falls back to a
// stricter in-memory limiter while Redis is unavailable.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

var _ Limiter = (*AdaptiveLimiter)(nil)

// NewAdaptiveLimiter combines a primary and a fallback limiter.
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Allow evaluates rule on the primary backend. On a primary error the
// fallback enforces half the limit, since each replica counts on its own.
func (a *AdaptiveLimiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	decision, err := a.primary.Allow(ctx, key, rule)
	if err == nil {
		decisionsTotal.WithLabelValues("redis", resultLabel(decision.Allowed)).Inc()
		return decision, nil
	}

	backendErrorsTotal.Inc()
	a.log.Warn("redis limiter failed, using in-memory fallback", slog.String("key", key), slog.Any("error", err))

	strict := rule
	strict.Limit = max(rule.Limit/2, 1)

	decision, err = a.fallback.Allow(ctx, key, strict)
	if err != nil {
		return decision, err
	}
	decisionsTotal.WithLabelValues("memory", resultLabel(decision.Allowed)).Inc()
	return decision, nil
}

func resultLabel(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "rejected"
}
