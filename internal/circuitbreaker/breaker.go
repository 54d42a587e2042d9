// Package circuitbreaker implements a three-state circuit breaker that sheds
// load from a failing exchange. Closed counts consecutive failures; crossing
// the failure threshold opens the breaker, which refuses every call until the
// reset timeout elapses. The next call then probes in half-open: enough
// consecutive probe successes close the breaker, any probe failure re-opens it.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the breaker state.
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

// ErrOpen is returned when the breaker refuses a call.
var ErrOpen = errors.New("circuit breaker open")

// Breaker is a three-state circuit breaker.
type Breaker struct {
	mu               sync.Mutex
	state            State
	consecFailures   int
	consecSuccesses  int
	failureThreshold int
	successThreshold int
	resetTimeout     time.Duration
	lastFailure      time.Time
	logger           *zap.Logger
	now              func() time.Time
}

// Config holds breaker configuration.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration
	Logger           *zap.Logger
}

// New creates a breaker in the closed state.
func New(cfg Config) *Breaker {
	StateGauge.Set(float64(StateClosed))
	return &Breaker{
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		resetTimeout:     cfg.ResetTimeout,
		logger:           cfg.Logger,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. In the open state it returns
// ErrOpen until resetTimeout has elapsed since the last failure, at which
// point the breaker transitions to half-open and admits probes.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.lastFailure) < b.resetTimeout {
			RefusedTotal.Inc()
			return ErrOpen
		}
		b.transition(StateHalfOpen)
	}

	return nil
}

// RecordSuccess notes a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.consecFailures = 0
	case StateHalfOpen:
		b.consecSuccesses++
		if b.consecSuccesses >= b.successThreshold {
			b.transition(StateClosed)
		}
	case StateOpen:
		// Success while open is a late response; ignore.
	}
}

// RecordFailure notes a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		b.consecFailures++
		if b.consecFailures >= b.failureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.transition(StateOpen)
	case StateOpen:
	}
}

// Execute runs fn under the breaker, recording the outcome.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil {
		b.RecordFailure()
		return err
	}

	b.RecordSuccess()
	return nil
}

// GetState returns the current state.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(next State) {
	if b.state == next {
		return
	}

	prev := b.state
	b.state = next
	b.consecFailures = 0
	b.consecSuccesses = 0

	StateGauge.Set(float64(next))
	TransitionsTotal.WithLabelValues(prev.String(), next.String()).Inc()

	if b.logger != nil {
		b.logger.Warn("circuit-breaker-transition",
			zap.String("from", prev.String()),
			zap.String("to", next.String()))
	}
}
