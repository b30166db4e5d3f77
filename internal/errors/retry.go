package errors

import (
	"context"
	"errors"
	"time"
)

const (
	MaxRetries     = 3
	InitialBackoff = 200 * time.Millisecond
	MaxBackoff     = 5 * time.Second
	// MaxFloodWait caps how long a single retry honors Telegram's retry_after.
	MaxFloodWait = 30 * time.Second
)

// RetryPolicy bounds the attempts made by Retry. Attempts counts the first
// call, so Attempts == 1 means no retry. Nil Retryable retries AppErrors
// marked retryable; nil Backoff uses TelegramBackoff.
type RetryPolicy struct {
	Attempts  int
	Retryable func(error) bool
	Backoff   func(attempt int, err error) time.Duration
}

// TelegramDelivery retries transient send failures, waiting as long as a
// flood reply asks.
func TelegramDelivery(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Retryable: IsTransientTelegram, Backoff: TelegramBackoff}
}

func WithRetry(ctx context.Context, fn func() error) error {
	return Retry(ctx, RetryPolicy{Attempts: MaxRetries + 1}, fn)
}

// Retry calls fn until it succeeds, returns a non-retryable error, runs out
// of attempts, or ctx ends.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	attempts := max(policy.Attempts, 1)
	retryable := policy.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	backoff := policy.Backoff
	if backoff == nil {
		backoff = TelegramBackoff
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) {
			return err
		}

		timer := time.NewTimer(backoff(attempt, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}

// TelegramBackoff waits for retry_after on flood errors and doubles from
// InitialBackoff otherwise.
func TelegramBackoff(attempt int, err error) time.Duration {
	if wait, ok := TelegramRetryAfter(err); ok {
		return min(wait, MaxFloodWait)
	}
	if attempt > 8 {
		return MaxBackoff
	}
	return min(InitialBackoff<<(attempt-1), MaxBackoff)
}

func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}
	return false
}
