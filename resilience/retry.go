package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the delay between attempts grows.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier per attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by InitialDelay per attempt.
	BackoffLinear
	// BackoffConstant waits InitialDelay between every attempt.
	BackoffConstant
)

// Retry defaults.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 100 * time.Millisecond
	DefaultMaxDelay     = 30 * time.Second
)

// RetryConfig configures a Retry.
type RetryConfig struct {
	// Name identifies the retry in OnRetry callbacks and errors.
	Name string

	// MaxAttempts counts the first attempt. Default: DefaultMaxAttempts.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	// Default: DefaultInitialDelay.
	InitialDelay time.Duration

	// MaxDelay caps any single wait. Default: DefaultMaxDelay.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor. Default: 2.
	Multiplier float64

	Strategy BackoffStrategy

	// Jitter adds up to 25% random extra to each wait.
	Jitter bool

	// RetryIf reports whether err is worth another attempt.
	// Default: Retryable.
	RetryIf func(err error) bool

	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retryable reports whether err is transient. Breaker rejections, rate
// limit denials and context errors are not.
func Retryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrCircuitOpen),
		errors.Is(err, ErrRateLimitExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// Retry re-runs a failing operation with backoff.
//
// Contract:
//   - Concurrency: safe for concurrent use; a Retry holds no per-call state.
//   - Errors: an error RetryIf rejects is returned unchanged. Exhaustion
//     returns an error matching ErrMaxRetriesExceeded and the last error.
//     Cancellation while waiting returns ctx.Err().
type Retry struct {
	config RetryConfig
}

// NewRetry creates a Retry, filling unset fields with defaults.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = DefaultInitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = DefaultMaxDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2
	}
	if config.RetryIf == nil {
		config.RetryIf = Retryable
	}
	return &Retry{config: config}
}

// Name returns the configured name.
func (r *Retry) Name() string {
	return r.config.Name
}

// Execute runs op until it succeeds, RetryIf rejects its error, or the
// attempts run out.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !r.config.RetryIf(err) {
			return err
		}
		if attempt == r.config.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, attempt, err)
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// delay is the wait after the given failed attempt.
func (r *Retry) delay(attempt int) time.Duration {
	d := r.config.InitialDelay
	switch r.config.Strategy {
	case BackoffLinear:
		d *= time.Duration(attempt)
	case BackoffExponential:
		d = time.Duration(float64(d) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}
	d = min(d, r.config.MaxDelay)

	if r.config.Jitter && d >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
