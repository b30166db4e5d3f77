package ratelimit

import (
	"fmt"

	"github.com/Proton-105/kino-bot/pkg/config"
)

// Scope names a throttled class of updates.
type Scope string

const (
	// ScopeUser covers every update of a user.
	ScopeUser Scope = "user"
	// ScopeCode covers content code lookups.
	ScopeCode Scope = "code"
)

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	config    config.RateLimitConfig
	whitelist map[int64]struct{}
}

// NewRules constructs rate limiting rules from configuration settings. The
// whitelisted ids bypass limits when admin bypass is enabled.
func NewRules(cfg config.RateLimitConfig, whitelist []int64) *Rules {
	r := &Rules{config: cfg, whitelist: make(map[int64]struct{}, len(whitelist))}
	if cfg.AdminBypass {
		for _, id := range whitelist {
			r.whitelist[id] = struct{}{}
		}
	}
	return r
}

// Enabled reports whether throttling is switched on.
func (r *Rules) Enabled() bool {
	return r != nil && r.config.Enabled
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	_, ok := r.whitelist[userID]
	return ok
}

// Rule returns the configured rule of scope.
func (r *Rules) Rule(scope Scope) (Rule, error) {
	var rule Rule
	switch scope {
	case ScopeUser:
		rule = Rule{Limit: r.config.UserLimit, Window: r.config.UserWindow}
	case ScopeCode:
		rule = Rule{Limit: r.config.CodeLimit, Window: r.config.CodeWindow}
	default:
		return Rule{}, fmt.Errorf("unsupported rate limit scope %q", scope)
	}
	if !rule.Valid() {
		return Rule{}, fmt.Errorf("rate limit rule %q is not configured", scope)
	}
	return rule, nil
}
