package health

import "errors"

// Failures recorded on a Result by the Aggregator, and returned by Check.
var (
	ErrCheckTimeout    = errors.New("health: check timeout")
	ErrCheckPanicked   = errors.New("health: check panicked")
	ErrCheckerNotFound = errors.New("health: checker not found")
)
