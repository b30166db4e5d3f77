package middleware

import (
	"log/slog"
	"math"
	"regexp"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/ratelimit"
	"github.com/Proton-105/kino-bot/pkg/metrics"
)

var codeLookupPattern = regexp.MustCompile(`^(/start\s+)?[sSmM]?\d+$`)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle returns a router middleware that enforces per-user limits. Content
// code lookups are additionally throttled by their own rule.
func (m *RateLimitMiddleware) Handle(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		if m.limiter == nil || !m.rules.Enabled() {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil || m.rules.IsWhitelisted(sender.ID) {
			return next(c)
		}

		scopes := []ratelimit.Scope{ratelimit.ScopeUser}
		if c.Callback() == nil && codeLookupPattern.MatchString(strings.TrimSpace(c.Text())) {
			scopes = append(scopes, ratelimit.ScopeCode)
		}

		for _, scope := range scopes {
			if err := m.check(c, sender.ID, scope); err != nil {
				return err
			}
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) check(c telebot.Context, userID int64, scope ratelimit.Scope) error {
	rule, err := m.rules.Rule(scope)
	if err != nil {
		m.log.Debug("rate limit rule not configured", slog.String("scope", string(scope)), slog.Any("error", err))
		return nil
	}

	decision, err := m.limiter.Allow(handlers.Ctx(c), ratelimit.Key(scope, userID), rule)
	if err != nil {
		m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil
	}
	if decision.Allowed {
		return nil
	}

	m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID), slog.String("scope", string(scope)))
	metrics.RecordRateLimited(string(scope))
	return apperrors.NewRateLimitError(max(int(math.Ceil(decision.RetryAfter.Seconds())), 1))
}
