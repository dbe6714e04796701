// Package circuitbreaker stops calling a failing dependency for a while so
// that race-day operations never wait on it. It guards side effects such as
// the live board, whose outage must not hold up the start or finish line.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/livetiming/race-hub/pkg/timeutil"
)

// State is where the breaker stands.
type State int

const (
	// StateClosed lets calls through.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-down elapses.
	StateOpen
	// StateHalfOpen lets a single trial call through.
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

// ErrCircuitOpen is returned while the breaker refuses calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Option tunes a breaker.
type Option func(*CircuitBreaker)

// WithFailureThreshold sets how many failures in a row open the circuit.
func WithFailureThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.threshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open before a trial call.
func WithCooldown(d time.Duration) Option {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.cooldown = d
		}
	}
}

// WithClock replaces the time source used for the cool-down.
func WithClock(clock timeutil.Clock) Option {
	return func(cb *CircuitBreaker) {
		if clock != nil {
			cb.clock = clock
		}
	}
}

// WithOnStateChange registers a callback fired on every transition.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(cb *CircuitBreaker) {
		cb.onChange = fn
	}
}

// CircuitBreaker counts consecutive failures of one dependency.
type CircuitBreaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	clock     timeutil.Clock
	onChange  func(name string, from, to State)

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
}

// New returns a closed breaker.
func New(name string, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:      name,
		threshold: 5,
		cooldown:  30 * time.Second,
		clock:     timeutil.SystemClock{},
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// BoardBreaker guards live board updates. It opens after three failures and
// tries again after fifteen seconds; the board catches up on the next update.
func BoardBreaker(onStateChange func(name string, from, to State), opts ...Option) *CircuitBreaker {
	return New("live-board", append([]Option{
		WithFailureThreshold(3),
		WithCooldown(15 * time.Second),
		WithOnStateChange(onStateChange),
	}, opts...)...)
}

// Execute runs fn unless the circuit is open and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// IsRejected reports whether err came from the breaker rather than the call.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.moveTo(StateHalfOpen)
	}
	// half-open admits one trial at a time
	if cb.trial {
		return ErrCircuitOpen
	}
	cb.trial = true
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.failures = 0
		cb.moveTo(StateClosed)
		return
	}

	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.threshold {
		cb.moveTo(StateOpen)
	}
}

func (cb *CircuitBreaker) moveTo(next State) {
	cb.trial = false
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	if next == StateOpen {
		cb.openedAt = cb.clock.Now()
	}
	if cb.onChange != nil {
		cb.onChange(cb.name, prev, next)
	}
}
