package health

import (
	"context"
	"sort"
	"strings"

	"github.com/jonwraymond/calltrace/resilience"
)

// BreakerStates reports circuit breaker states by name.
// *resilience.Registry implements it.
type BreakerStates interface {
	AllStates() map[string]resilience.State
}

var _ BreakerStates = (*resilience.Registry)(nil)

// BreakerChecker reports breaker health: unhealthy when any watched breaker
// is open, degraded when any is half-open, healthy otherwise.
type BreakerChecker struct {
	states BreakerStates
	watch  map[string]struct{}
}

// NewBreakerChecker creates a checker over states. With no names every
// breaker is watched.
func NewBreakerChecker(states BreakerStates, names ...string) *BreakerChecker {
	c := &BreakerChecker{states: states}
	if len(names) > 0 {
		c.watch = make(map[string]struct{}, len(names))
		for _, n := range names {
			c.watch[n] = struct{}{}
		}
	}
	return c
}

// Name returns "breakers".
func (c *BreakerChecker) Name() string {
	return "breakers"
}

// Check reads the current breaker states.
func (c *BreakerChecker) Check(_ context.Context) Result {
	details := make(map[string]any)
	var open, halfOpen []string

	for name, state := range c.states.AllStates() {
		if c.watch != nil {
			if _, ok := c.watch[name]; !ok {
				continue
			}
		}
		details[name] = state.String()
		switch state {
		case resilience.StateOpen:
			open = append(open, name)
		case resilience.StateHalfOpen:
			halfOpen = append(halfOpen, name)
		}
	}
	sort.Strings(open)
	sort.Strings(halfOpen)

	var r Result
	switch {
	case len(open) > 0:
		r = Unhealthy("open: "+strings.Join(open, ", "), resilience.ErrCircuitOpen)
	case len(halfOpen) > 0:
		r = Degraded("half-open: " + strings.Join(halfOpen, ", "))
	default:
		r = Healthy("all breakers closed")
	}
	return r.WithDetails(details)
}

var _ Checker = (*BreakerChecker)(nil)
