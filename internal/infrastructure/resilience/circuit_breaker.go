package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	domainerrors "github.com/qj0r9j0vc2/mention-bridge/internal/domain/errors"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows all requests through.
	StateClosed State = iota
	// StateOpen rejects all requests.
	StateOpen
	// StateHalfOpen allows limited requests to test recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
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

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling a failing dependency for a while after
// consecutive transient failures. Permanent failures (bad request, bad
// credentials) and caller cancellations do not count against the dependency.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	openTimeout  time.Duration
	halfOpenSucc int // Successes needed in half-open to close
	now          func() time.Time

	mu           sync.Mutex
	state        State
	failures     int
	openedAt     time.Time
	successCount int
}

// NewCircuitBreaker creates a circuit breaker that opens after maxFailures
// consecutive transient failures and probes again after openTimeout.
func NewCircuitBreaker(name string, maxFailures int, openTimeout time.Duration) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		openTimeout:  openTimeout,
		halfOpenSucc: 1,
		now:          time.Now,
		state:        StateClosed,
	}
}

// Execute runs fn with circuit breaker protection.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return domainerrors.NewTransientError(cb.name, err)
	}

	err := fn(ctx)
	cb.afterRequest(ctx, err)

	return err
}

// beforeRequest checks if the request should be allowed.
func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.openTimeout {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.successCount = 0
	}
	return nil
}

// afterRequest updates the circuit breaker state based on the result.
func (cb *CircuitBreaker) afterRequest(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case err == nil || domainerrors.IsPermanentError(err):
		// The dependency answered
		if cb.state == StateHalfOpen {
			cb.successCount++
			if cb.successCount < cb.halfOpenSucc {
				return
			}
		}
		cb.state = StateClosed
		cb.failures = 0

	case ctx.Err() != nil:
		// Caller gave up; says nothing about the dependency
		if cb.state == StateHalfOpen {
			cb.state = StateOpen
		}

	default:
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = StateOpen
			cb.openedAt = cb.now()
		}
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the circuit breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
