// Package resilience keeps the simulator talking when a model backend does
// not. A [CircuitBreaker] stops hammering a backend that keeps failing its
// completion calls, [FallbackGroup] moves traffic to the next configured
// backend while a breaker is open, and [RetryWithResult] absorbs transient
// startup failures. When every backend is down the dialogue layer still
// answers from its deterministic pools; nothing here is the last line.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while the breaker
// rejects calls.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen] until the cooldown
	// elapses.
	StateOpen

	// StateHalfOpen lets a bounded number of probe calls through to decide
	// between closing and re-opening.
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

// CircuitBreakerConfig tunes a [CircuitBreaker]. The defaults suit completion
// backends: generation calls already carry their own timeout, so a short
// failure streak is signal enough, and a cooldown longer than one
// conversation turn keeps a flapping backend from being probed every message.
type CircuitBreakerConfig struct {
	// Name labels the guarded backend in log output.
	Name string

	// MaxFailures is the failure streak that opens the breaker. Default: 4.
	MaxFailures int

	// ResetTimeout is the open-state cooldown before probing resumes.
	// Default: 45s.
	ResetTimeout time.Duration

	// HalfOpenMax is how many probe calls the half-open state admits.
	// Default: 2.
	HalfOpenMax int
}

// CircuitBreaker tracks the health of one backend and gates calls to it.
type CircuitBreaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	probeMax    int

	mu         sync.Mutex
	state      State
	failStreak int
	failedAt   time.Time
	probes     int
	probeFails int
}

// NewCircuitBreaker creates a closed breaker, filling zero config fields with
// the defaults documented on [CircuitBreakerConfig].
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 4
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 45 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 2
	}
	return &CircuitBreaker{
		name:        cfg.Name,
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.ResetTimeout,
		probeMax:    cfg.HalfOpenMax,
		state:       StateClosed,
	}
}

// Execute runs fn when the breaker admits the call and feeds the outcome back
// into the breaker's state. While open it returns [ErrCircuitOpen] without
// calling fn; in half-open only [CircuitBreakerConfig.HalfOpenMax] probes get
// through.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, ok := cb.admit()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure(probe)
	} else {
		cb.onSuccess(probe)
	}
	return err
}

// admit decides whether a call may proceed and whether it counts as a
// half-open probe.
func (cb *CircuitBreaker) admit() (probe, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.failedAt) < cb.cooldown {
			return false, false
		}
		cb.state = StateHalfOpen
		cb.probes = 0
		cb.probeFails = 0
		slog.Info("circuit half-open, probing backend", "backend", cb.name)

	case StateHalfOpen:
		if cb.probes >= cb.probeMax {
			return false, false
		}
	}

	if cb.state == StateHalfOpen {
		cb.probes++
		return true, true
	}
	return false, true
}

// onFailure updates failure accounting. Caller holds cb.mu.
func (cb *CircuitBreaker) onFailure(probe bool) {
	cb.failedAt = time.Now()

	if probe {
		// One failed probe re-opens immediately.
		cb.probeFails++
		cb.state = StateOpen
		cb.failStreak = cb.maxFailures
		slog.Warn("circuit re-opened, probe failed", "backend", cb.name)
		return
	}

	cb.failStreak++
	if cb.failStreak >= cb.maxFailures {
		cb.state = StateOpen
		slog.Warn("circuit opened",
			"backend", cb.name,
			"failure_streak", cb.failStreak)
	}
}

// onSuccess updates success accounting. Caller holds cb.mu.
func (cb *CircuitBreaker) onSuccess(probe bool) {
	if probe {
		if cb.probes-cb.probeFails >= cb.probeMax {
			cb.state = StateClosed
			cb.failStreak = 0
			cb.probes = 0
			cb.probeFails = 0
			slog.Info("circuit closed, backend recovered", "backend", cb.name)
		}
		return
	}
	cb.failStreak = 0
}

// State reports the breaker's mode. An open breaker whose cooldown elapsed
// reports half-open; the stored state changes on the next [Execute].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.failedAt) >= cb.cooldown {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker closed and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failStreak = 0
	cb.probes = 0
	cb.probeFails = 0
	slog.Info("circuit reset", "backend", cb.name)
}
