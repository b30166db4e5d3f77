// Package ratelimit throttles updates per Telegram user.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Rule allows Limit updates inside a sliding Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Valid reports whether the rule can be enforced.
func (r Rule) Valid() bool {
	return r.Limit > 0 && r.Window > 0
}

// Decision is the verdict for a single update.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the oldest counted update leaves the
	// window. Zero when allowed.
	RetryAfter time.Duration
}

// Limiter counts updates per key.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (Decision, error)
}

// Key builds the limiter key of userID within scope.
func Key(scope Scope, userID int64) string {
	return fmt.Sprintf("%s:%d", scope, userID)
}
