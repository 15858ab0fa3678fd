// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package circuitbreaker gates repeated calls to an unreliable external
// service. Each gateway engine profile and the completion service get an
// independent breaker, so a sustained outage in one backend fast-fails
// without affecting the others.
//
// See docs/ARCHITECTURE.md § Resilience.
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
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the breaker is open and fast-failing calls.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds breaker thresholds.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker from closed.
	FailureThreshold int

	// SuccessThreshold is the consecutive-success count that closes the
	// breaker from half-open.
	SuccessThreshold int

	// Cooldown is how long the breaker stays open before allowing a
	// half-open probe.
	Cooldown time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// Breaker implements the circuit-breaker pattern around a single
// external service.
type Breaker struct {
	name   string
	cfg    Config
	logger *zap.Logger

	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	openedAt     time.Time
	halfOpenBusy bool
}

// New creates a closed breaker. A nil logger is replaced with zap.NewNop().
func New(name string, cfg Config, logger *zap.Logger) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultConfig().SuccessThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultConfig().Cooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{name: name, cfg: cfg, logger: logger, state: StateClosed}
}

// Execute runs fn if the breaker admits the call, recording the outcome.
// When the breaker is open (and the cooldown has not elapsed) it returns
// ErrOpen without invoking fn. Context errors count as failures: a
// service slow enough to trip deadlines is as unavailable as one
// refusing connections.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		b.record(false)
		return err
	}

	err := fn()
	b.record(err == nil)
	return err
}

// State returns the current state, transitioning open→half-open when the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh(time.Now())
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh(time.Now())

	switch b.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		// One probe in flight at a time while half-open.
		if b.halfOpenBusy {
			return ErrOpen
		}
		b.halfOpenBusy = true
	}
	return nil
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.halfOpenBusy = false

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		if !success {
			b.transition(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}

// refresh moves open→half-open once the cooldown elapses. Caller holds mu.
func (b *Breaker) refresh(now time.Time) {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.cfg.Cooldown {
		b.transition(StateHalfOpen)
	}
}

// transition changes state and resets counters. Caller holds mu.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0
	b.halfOpenBusy = false
	if to == StateOpen {
		b.openedAt = time.Now()
	}

	b.logger.Info("circuit breaker state changed",
		zap.String("breaker", b.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}
