package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where requests are allowed.
	Closed State = iota
	// Open state is when the circuit has tripped and requests are blocked.
	Open
	// HalfOpen lets trial requests through to test the dependency's recovery.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is in the Open state.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker is the interface for the circuit breaker pattern.
type CircuitBreaker interface {
	// Execute runs req unless the circuit is open.
	Execute(req func() error) error
	// State returns the current state of the circuit breaker.
	State() State
}

// Option configures a breaker.
type Option func(*breaker)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *breaker) { b.now = now }
}

// WithFailurePredicate decides which errors count as failures. By default
// every error counts except context.Canceled, which means the caller went
// away rather than the dependency failing.
func WithFailurePredicate(isFailure func(error) bool) Option {
	return func(b *breaker) { b.isFailure = isFailure }
}

type breaker struct {
	failureThreshold     uint32
	successThreshold     uint32
	timeout              time.Duration // time spent Open before moving to HalfOpen
	consecutiveSuccesses uint32
	consecutiveFailures  uint32
	openedAt             time.Time
	state                State
	now                  func() time.Time
	isFailure            func(error) bool
	mutex                sync.Mutex
}

// New creates a circuit breaker.
// failureThreshold: consecutive failures that open the circuit.
// successThreshold: consecutive half-open successes that close it again.
// timeout: how long the circuit stays open before allowing a trial request.
func New(failureThreshold, successThreshold uint32, timeout time.Duration, opts ...Option) CircuitBreaker {
	if failureThreshold == 0 {
		failureThreshold = 1
	}
	if successThreshold == 0 {
		successThreshold = 1
	}
	b := &breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		state:            Closed,
		now:              time.Now,
		isFailure:        defaultIsFailure,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func defaultIsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// State returns the current state, accounting for an elapsed open timeout.
func (b *breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.advance()
	return b.state
}

// Execute wraps the execution of a function with the circuit breaker logic.
func (b *breaker) Execute(req func() error) error {
	b.mutex.Lock()
	b.advance()
	if b.state == Open {
		b.mutex.Unlock()
		return ErrCircuitOpen
	}
	b.mutex.Unlock()

	err := req()

	b.mutex.Lock()
	defer b.mutex.Unlock()
	switch {
	case err == nil:
		b.onSuccess()
	case b.isFailure(err):
		b.onFailure()
	}
	return err
}

// advance moves Open to HalfOpen once the timeout has elapsed. Caller holds the lock.
func (b *breaker) advance() {
	if b.state == Open && b.now().Sub(b.openedAt) > b.timeout {
		b.state = HalfOpen
		b.consecutiveSuccesses = 0
	}
}

func (b *breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.successThreshold {
			b.reset()
		}
	case Closed:
		b.consecutiveFailures = 0
	}
}

func (b *breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.trip()
		}
	}
}

func (b *breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
}

func (b *breaker) reset() {
	b.state = Closed
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
}

// Noop returns a breaker that never opens.
func Noop() CircuitBreaker { return noop{} }

type noop struct{}

func (noop) Execute(req func() error) error { return req() }
func (noop) State() State                   { return Closed }
