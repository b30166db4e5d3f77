package subscription

import (
	"context"
	"time"

	apperrors "github.com/Proton-105/kino-bot/internal/errors"
)

type guardedChecker struct {
	next    MembershipChecker
	breaker *apperrors.CircuitBreaker
	timeout time.Duration
}

// Guard bounds every lookup of next by timeout and short-circuits through
// breaker while the membership API keeps failing.
func Guard(next MembershipChecker, breaker *apperrors.CircuitBreaker, timeout time.Duration) MembershipChecker {
	if breaker == nil {
		breaker = apperrors.NewCircuitBreaker()
	}

	return &guardedChecker{next: next, breaker: breaker, timeout: timeout}
}

func (g *guardedChecker) ChatMember(ctx context.Context, chatID string, userID int64) (Membership, error) {
	var membership Membership

	err := g.breaker.Call(func() error {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		var err error
		membership, err = g.next.ChatMember(callCtx, chatID, userID)
		return err
	})

	return membership, err
}
