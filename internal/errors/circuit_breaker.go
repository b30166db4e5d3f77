package errors

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	ErrorThreshold      = 0.5
	MinRequests         = 10
	TimeoutDuration     = 30 * time.Second
	HalfOpenMaxRequests = 3
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrCircuitOpen             = errors.New("circuit breaker is open")
	errHalfOpenTooManyRequests = errors.New("too many requests in half-open")
)

// BreakerOption customizes a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// OnStateChange is called, outside the lock, whenever the breaker moves.
func OnStateChange(fn func(from, to State)) BreakerOption {
	return func(cb *CircuitBreaker) { cb.onChange = fn }
}

// CircuitBreaker guards Telegram API calls. Once half of at least
// MinRequests calls fail it rejects calls for TimeoutDuration, or for as
// long as a flood reply asks, then lets HalfOpenMaxRequests probes through.
// Calls cancelled by their caller are not counted.
type CircuitBreaker struct {
	mu        sync.Mutex
	timeout   time.Duration
	now       func() time.Time
	onChange  func(from, to State)
	state     State
	failures  int
	successes int
	requests  int
	openUntil time.Time
}

func NewCircuitBreaker(opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:   StateClosed,
		timeout: TimeoutDuration,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	if err := cb.admit(); err != nil {
		return err
	}

	callErr := fn()

	cb.mu.Lock()
	from := cb.state
	cb.record(callErr)
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
	return callErr
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	from := cb.state
	if cb.state == StateOpen {
		if cb.now().Before(cb.openUntil) {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.moveLocked(StateHalfOpen)
	}

	if cb.state == StateHalfOpen && cb.requests >= HalfOpenMaxRequests {
		cb.mu.Unlock()
		cb.notify(from, StateHalfOpen)
		return errHalfOpenTooManyRequests
	}
	cb.requests++
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	switch {
	case errors.Is(err, context.Canceled):
		cb.requests--
		return
	case err == nil:
		cb.successes++
		if cb.state == StateHalfOpen && cb.successes >= HalfOpenMaxRequests {
			cb.moveLocked(StateClosed)
		}
		return
	}

	if wait, ok := TelegramRetryAfter(err); ok {
		cb.tripLocked(wait)
		return
	}

	cb.failures++
	if cb.state == StateHalfOpen {
		cb.tripLocked(cb.timeout)
		return
	}
	if cb.requests >= MinRequests && float64(cb.failures)/float64(cb.requests) >= ErrorThreshold {
		cb.tripLocked(cb.timeout)
	}
}

func (cb *CircuitBreaker) tripLocked(wait time.Duration) {
	cb.moveLocked(StateOpen)
	cb.openUntil = cb.now().Add(max(wait, cb.timeout))
}

func (cb *CircuitBreaker) moveLocked(to State) {
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.requests = 0
}

func (cb *CircuitBreaker) notify(from, to State) {
	if from != to && cb.onChange != nil {
		cb.onChange(from, to)
	}
}
