package health

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/telebot.v3"
)

const (
	statusOK           = "OK"
	defaultCheckBudget = 2 * time.Second
)

// Checkable is a dependency the bot cannot serve without.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// Checker probes the database, Redis and Telegram for /readyz.
type Checker struct {
	log    *slog.Logger
	budget time.Duration

	mu     sync.RWMutex
	checks map[string]Checkable
}

// NewChecker returns an empty Checker. Each check gets two seconds.
func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		log:    log.With(slog.String("component", "health")),
		budget: defaultCheckBudget,
		checks: make(map[string]Checkable),
	}
}

// AddCheck registers check under name, replacing an earlier one.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}
	c.mu.Lock()
	c.checks[name] = check
	c.mu.Unlock()
}

// Names lists the registered checks in order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs all checks concurrently and maps each name to "OK" or its error.
func (c *Checker) Check(ctx context.Context) map[string]string {
	c.mu.RLock()
	checks := make(map[string]Checkable, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]string, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Checkable) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, c.budget)
			defer cancel()

			status := statusOK
			if err := check.HealthCheck(checkCtx); err != nil {
				status = err.Error()
				c.log.WarnContext(ctx, "health check failed", slog.String("check", name), slog.Any("error", err))
			}

			mu.Lock()
			results[name] = status
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	return results
}

// Healthy reports whether every result of Check is OK.
func Healthy(results map[string]string) bool {
	for _, status := range results {
		if status != statusOK {
			return false
		}
	}
	return true
}

// NewDBChecker pings PostgreSQL.
func NewDBChecker(db *sql.DB) Checkable {
	return CheckFunc(func(ctx context.Context) error {
		if db == nil {
			return sql.ErrConnDone
		}
		return db.PingContext(ctx)
	})
}

// Pinger is the part of redis.Client the Redis check needs.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// NewRedisChecker pings Redis.
func NewRedisChecker(pinger Pinger) Checkable {
	return CheckFunc(func(ctx context.Context) error {
		if pinger == nil {
			return redis.ErrClosed
		}
		return pinger.Ping(ctx).Err()
	})
}

var errBotNotStarted = errors.New("telegram bot identity is unknown")

// NewTelegramChecker passes once the bot has fetched its own identity,
// which the username in deep links depends on.
func NewTelegramChecker(bot *telebot.Bot) Checkable {
	return CheckFunc(func(context.Context) error {
		if bot == nil || bot.Me == nil || bot.Me.Username == "" {
			return errBotNotStarted
		}
		return nil
	})
}
