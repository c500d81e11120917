package resilience

import (
	"sort"
	"sync"
)

// Registry holds named circuit breakers.
//
// Breakers created through the registry share its default configuration
// and state-change callback. Registry satisfies the breaker-state lookup
// used by failure classification.
//
// Contract:
// - Concurrency: safe for concurrent use.
type Registry struct {
	defaults CircuitBreakerConfig

	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates a registry whose breakers start from defaults.
// defaults.Name is ignored.
func NewRegistry(defaults CircuitBreakerConfig) *Registry {
	return &Registry{
		defaults: defaults,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// CircuitBreaker returns the breaker called name, creating it on first use.
func (r *Registry) CircuitBreaker(name string) *CircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	config := r.defaults
	config.Name = name
	cb = NewCircuitBreaker(config)
	r.breakers[name] = cb
	return cb
}

// Register adds breakers built elsewhere, replacing any with the same name.
func (r *Registry) Register(breakers ...*CircuitBreaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cb := range breakers {
		if cb != nil {
			r.breakers[cb.Name()] = cb
		}
	}
}

// Lookup returns the breaker called name, if registered.
func (r *Registry) Lookup(name string) (*CircuitBreaker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cb, ok := r.breakers[name]
	return cb, ok
}

// StateOf returns the state of the named breaker, or StateUnknown.
func (r *Registry) StateOf(name string) State {
	cb, ok := r.Lookup(name)
	if !ok {
		return StateUnknown
	}
	return cb.State()
}

// AllStates returns a snapshot of every registered breaker's state.
func (r *Registry) AllStates() map[string]State {
	r.mu.RLock()
	snapshot := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		snapshot = append(snapshot, cb)
	}
	r.mu.RUnlock()

	states := make(map[string]State, len(snapshot))
	for _, cb := range snapshot {
		states[cb.Name()] = cb.State()
	}
	return states
}

// Names returns registered breaker names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
