package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is matched by every breaker rejection.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when max retry attempts are exhausted.
	// The last attempt's error is wrapped alongside it.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")
)

// CallNotPermittedError is returned when a circuit breaker rejects a call
// without running it.
type CallNotPermittedError struct {
	// Breaker is the name of the rejecting breaker.
	Breaker string

	// State is the breaker state at rejection time.
	State State
}

// Error implements error.
func (e *CallNotPermittedError) Error() string {
	if e.Breaker == "" {
		return fmt.Sprintf("resilience: circuit breaker is %s and does not permit further calls", e.State)
	}
	return fmt.Sprintf("resilience: circuit breaker %q is %s and does not permit further calls", e.Breaker, e.State)
}

// Is reports whether target is ErrCircuitOpen.
func (e *CallNotPermittedError) Is(target error) bool {
	return target == ErrCircuitOpen
}
