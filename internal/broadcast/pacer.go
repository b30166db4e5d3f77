package broadcast

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the pause between two sends of the fixed pacer.
const DefaultDelay = 50 * time.Millisecond

// Pacer throttles deliveries. Wait blocks until the next send may start.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer sleeps a constant delay before every send but the first.
type FixedPacer struct {
	delay   time.Duration
	started bool
}

func NewFixedPacer(delay time.Duration) *FixedPacer {
	if delay < 0 {
		delay = 0
	}
	return &FixedPacer{delay: delay}
}

func (p *FixedPacer) Wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return ctx.Err()
	}
	if p.delay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TokenBucketPacer allows up to perSecond sends per second with bursts.
type TokenBucketPacer struct {
	limiter *rate.Limiter
}

func NewTokenBucketPacer(perSecond float64, burst int) *TokenBucketPacer {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucketPacer{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (p *TokenBucketPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// PacerFactory builds a fresh pacer for each broadcast.
type PacerFactory func() Pacer

// Fixed returns a factory of FixedPacer.
func Fixed(delay time.Duration) PacerFactory {
	return func() Pacer { return NewFixedPacer(delay) }
}

// TokenBucket returns a factory of TokenBucketPacer.
func TokenBucket(perSecond float64, burst int) PacerFactory {
	return func() Pacer { return NewTokenBucketPacer(perSecond, burst) }
}
