package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/onnwee/simplecache/internal/logger"
	"github.com/onnwee/simplecache/internal/metrics"
)

var (
	// ErrCircuitOpen is returned when the circuit breaker is open
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// State represents the circuit breaker state
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

// CircuitBreaker stops calls to a failing dependency for a cooldown period,
// then lets a limited number of trial calls through before closing again.
type CircuitBreaker struct {
	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	trials        int    // half-open calls in flight
	phase         uint64 // bumped on every entry into half-open
	openedAt      time.Time
	name          string
	now           func() time.Time
	failThreshold int
	okThreshold   int
	cooldown      time.Duration
}

// Config holds circuit breaker configuration
type Config struct {
	Name             string
	FailureThreshold int           // Consecutive failures before opening
	SuccessThreshold int           // Successes needed to close from half-open
	Timeout          time.Duration // Cooldown before a half-open trial
	Now              func() time.Time
}

// New creates a new circuit breaker
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cb := &CircuitBreaker{
		state:         StateClosed,
		name:          cfg.Name,
		now:           cfg.Now,
		failThreshold: cfg.FailureThreshold,
		okThreshold:   cfg.SuccessThreshold,
		cooldown:      cfg.Timeout,
	}
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(float64(StateClosed))
	return cb
}

// Name returns the component label of the breaker.
func (cb *CircuitBreaker) Name() string { return cb.name }

// Call executes fn if the breaker allows it and records the outcome.
// While half-open at most SuccessThreshold trial calls run at once; the
// rest are rejected with ErrCircuitOpen.
func (cb *CircuitBreaker) Call(fn func() error) error {
	ok, trial, phase := cb.allow()
	if !ok {
		return ErrCircuitOpen
	}
	if trial {
		defer cb.endTrial(phase)
	}
	if err := fn(); err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() (ok, trial bool, phase uint64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return false, false, 0
		}
		cb.successes = 0
		cb.trials = 0
		cb.phase++
		cb.transition(StateHalfOpen)
	}
	if cb.state == StateHalfOpen {
		if cb.trials >= cb.okThreshold {
			return false, false, 0
		}
		cb.trials++
		return true, true, cb.phase
	}
	return true, false, 0
}

// endTrial releases a half-open slot. Trials from an earlier half-open
// phase no longer hold one.
func (cb *CircuitBreaker) endTrial(phase uint64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if phase == cb.phase && cb.trials > 0 {
		cb.trials--
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successes = 0
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failThreshold {
			cb.trip()
		}
	case StateHalfOpen:
		cb.trip()
	case StateOpen:
		// A call admitted before another goroutine tripped the breaker.
		cb.openedAt = cb.now()
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.okThreshold {
			cb.failures = 0
			cb.successes = 0
			cb.transition(StateClosed)
		}
	}
}

// trip must be called with mu held.
func (cb *CircuitBreaker) trip() {
	cb.failures = 0
	cb.openedAt = cb.now()
	metrics.CircuitBreakerTrips.WithLabelValues(cb.name).Inc()
	cb.transition(StateOpen)
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(float64(to))
	logger.WithComponent("circuitbreaker").Warn("circuit breaker state changed",
		"name", cb.name, "from", from.String(), "to", to.String())
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.successes = 0
	cb.trials = 0
	cb.transition(StateClosed)
}
