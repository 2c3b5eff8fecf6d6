package errors

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
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
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes when a breaker opens and how long it stays
// open before allowing a half-open probe.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// DefaultCircuitBreakerConfig matches the teacher's defaults: trip after
// five consecutive failures, require two successes to fully close, and
// wait thirty seconds before probing again.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// CircuitBreaker protects a downstream call from cascading failures.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	openedAt    time.Time
	halfOpenTry bool
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}
	return &CircuitBreaker{name: name, config: config, state: StateClosed}
}

// State returns the breaker's current state, resolving an expired open
// window into half-open as a side effect.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransitionToHalfOpenLocked()
	return cb.state
}

func (cb *CircuitBreaker) maybeTransitionToHalfOpenLocked() {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.Timeout {
		cb.state = StateHalfOpen
		cb.halfOpenTry = false
		cb.successes = 0
	}
}

// degradedError indicates the breaker rejected the call without
// attempting it.
type degradedError struct {
	breaker string
}

func (e *degradedError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open", e.breaker)
}

// IsDegraded reports whether err came from a breaker short-circuiting
// the call rather than from the call itself.
func IsDegraded(err error) bool {
	_, ok := err.(*degradedError)
	return ok
}

// Execute runs fn if the breaker permits it, recording the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransitionToHalfOpenLocked()

	switch cb.state {
	case StateOpen:
		return &degradedError{breaker: cb.name}
	case StateHalfOpen:
		if cb.halfOpenTry {
			return &degradedError{breaker: cb.name}
		}
		cb.halfOpenTry = true
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.onSuccessLocked()
		return
	}
	cb.onFailureLocked()
}

func (cb *CircuitBreaker) onSuccessLocked() {
	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		cb.halfOpenTry = false
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failures = 0
			cb.successes = 0
		}
	case StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) onFailureLocked() {
	switch cb.state {
	case StateHalfOpen:
		cb.openLocked()
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.openLocked()
		}
	}
}

func (cb *CircuitBreaker) openLocked() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenTry = false
}

// ExecuteFunc runs fn (which also returns a value) through the breaker.
func ExecuteFunc[T any](cb *CircuitBreaker, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		r, err := fn(ctx)
		result = r
		return err
	})
	return result, err
}
