package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed lets calls through.
	StateClosed State = iota
	// StateOpen rejects calls.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

// String returns the state name.
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

// ErrCircuitOpen is returned by Execute while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	Name string `yaml:"-" mapstructure:"-"`
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// HalfOpenMaxCalls probes must succeed to close the circuit again.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`

	// IsFailure decides which errors count against the circuit. Nil counts all.
	IsFailure func(error) bool `yaml:"-" mapstructure:"-"`
	// OnStateChange runs on every transition, under the breaker lock.
	OnStateChange func(name string, from, to State) `yaml:"-" mapstructure:"-"`
}

// DefaultCircuitBreakerConfig returns five failures and a 30s open period.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker fails fast while the remote side keeps failing.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	halfOpenCalls int
	openedAt      time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	d := DefaultCircuitBreakerConfig(config.Name)
	if config.MaxFailures <= 0 {
		config.MaxFailures = d.MaxFailures
	}
	if config.Timeout <= 0 {
		config.Timeout = d.Timeout
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = d.HalfOpenMaxCalls
	}
	return &CircuitBreaker{config: config, now: time.Now}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.current()
}

// Reset closes the circuit and clears counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toState(StateClosed)
	cb.failures = 0
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.current() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.config.HalfOpenMaxCalls {
			cb.halfOpenCalls++
			return true
		}
	}
	return false
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := err != nil && (cb.config.IsFailure == nil || cb.config.IsFailure(err))
	state := cb.current()
	if !failed {
		switch state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.config.HalfOpenMaxCalls {
				cb.toState(StateClosed)
			}
		}
		return
	}

	cb.failures++
	if state == StateHalfOpen || cb.failures >= cb.config.MaxFailures {
		cb.openedAt = cb.now()
		cb.toState(StateOpen)
	}
}

// current moves an expired open circuit to half-open. Callers hold mu.
func (cb *CircuitBreaker) current() State {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.Timeout {
		cb.toState(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) toState(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.successes = 0
	cb.halfOpenCalls = 0
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
