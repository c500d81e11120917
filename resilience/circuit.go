package resilience

import (
	"context"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed lets calls through and counts consecutive failures.
	StateClosed State = iota
	// StateOpen rejects calls until ResetTimeout has passed.
	StateOpen
	// StateHalfOpen lets a limited number of trial calls through.
	StateHalfOpen
	// StateUnknown is reported for breakers that do not exist.
	StateUnknown
)

var stateNames = [...]string{"closed", "open", "half-open", "unknown"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// StateChangeFunc observes breaker transitions. It runs after the breaker
// has released its lock, so it may query the breaker.
type StateChangeFunc func(name string, from, to State)

// Circuit breaker defaults.
const (
	DefaultMaxFailures  = 5
	DefaultResetTimeout = 30 * time.Second
)

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in errors, registries and callbacks.
	Name string

	// MaxFailures consecutive failures open the breaker.
	// Default: DefaultMaxFailures.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before probing.
	// Default: DefaultResetTimeout.
	ResetTimeout time.Duration

	// HalfOpenMaxRequests bounds concurrent trial calls. Default: 1.
	HalfOpenMaxRequests int

	OnStateChange StateChangeFunc

	// IsFailure decides which errors count. Default: any non-nil error.
	IsFailure func(err error) bool

	// Clock replaces time.Now.
	Clock func() time.Time
}

// CircuitBreaker stops calling a failing dependency for a while.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: rejected calls return *CallNotPermittedError, which matches
//     ErrCircuitOpen; errors from the operation are returned unchanged.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trials   int
	pending  []transition
}

type transition struct {
	from, to State
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultMaxFailures
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = DefaultResetTimeout
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Name returns the configured name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Execute runs op unless the breaker rejects the call. A panic in op
// counts as a failure and is re-raised.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.acquire(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			cb.settle(true)
			panic(r)
		}
	}()
	err := op(ctx)
	cb.settle(cb.config.IsFailure(err))
	return err
}

// State returns the current state, moving open to half-open once the
// reset timeout has passed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.unlock()
	return cb.currentLocked()
}

// Reset closes the breaker and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.unlock()
	cb.failures = 0
	cb.moveLocked(StateClosed)
}

// Trip opens the breaker as if MaxFailures had been reached.
func (cb *CircuitBreaker) Trip() {
	cb.mu.Lock()
	defer cb.unlock()
	cb.openLocked()
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()
	defer cb.unlock()

	switch state := cb.currentLocked(); state {
	case StateOpen:
		return &CallNotPermittedError{Breaker: cb.config.Name, State: state}
	case StateHalfOpen:
		if cb.trials >= cb.config.HalfOpenMaxRequests {
			return &CallNotPermittedError{Breaker: cb.config.Name, State: state}
		}
		cb.trials++
	}
	return nil
}

func (cb *CircuitBreaker) settle(failed bool) {
	cb.mu.Lock()
	defer cb.unlock()

	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.openLocked()
		}
	case StateHalfOpen:
		if failed {
			cb.openLocked()
			return
		}
		cb.failures = 0
		cb.moveLocked(StateClosed)
	}
}

func (cb *CircuitBreaker) currentLocked() State {
	if cb.state == StateOpen && cb.config.Clock().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.moveLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) openLocked() {
	cb.openedAt = cb.config.Clock()
	cb.moveLocked(StateOpen)
}

func (cb *CircuitBreaker) moveLocked(to State) {
	cb.trials = 0
	if cb.state == to {
		return
	}
	cb.pending = append(cb.pending, transition{from: cb.state, to: to})
	cb.state = to
}

// unlock releases the lock and then reports queued transitions.
func (cb *CircuitBreaker) unlock() {
	fire := cb.pending
	cb.pending = nil
	cb.mu.Unlock()

	if cb.config.OnStateChange == nil {
		return
	}
	for _, t := range fire {
		cb.config.OnStateChange(cb.config.Name, t.from, t.to)
	}
}

// CircuitBreakerMetrics is a snapshot of a breaker.
type CircuitBreakerMetrics struct {
	Name     string
	State    State
	Failures int

	// OpenedAt is when the breaker last opened.
	OpenedAt time.Time
}

// Metrics returns a snapshot.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.unlock()
	return CircuitBreakerMetrics{
		Name:     cb.config.Name,
		State:    cb.currentLocked(),
		Failures: cb.failures,
		OpenedAt: cb.openedAt,
	}
}
