package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rate limiter defaults.
const (
	DefaultRate    = 100
	DefaultBurst   = 10
	DefaultMaxWait = time.Second
)

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	// Name identifies the limiter in errors.
	Name string

	// Rate is the sustained permits per second. Default: DefaultRate.
	Rate float64

	// Burst is the bucket size. Default: DefaultBurst.
	Burst int

	// WaitOnLimit makes Execute wait up to MaxWait for a permit instead of
	// failing at once.
	WaitOnLimit bool

	// MaxWait bounds a wait. Default: DefaultMaxWait.
	MaxWait time.Duration
}

// RateLimiter is a token bucket over golang.org/x/time/rate.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: denials match ErrRateLimitExceeded; a caller's cancelled
//     context is returned as ctx.Err().
type RateLimiter struct {
	config RateLimiterConfig

	mu      sync.RWMutex
	limiter *rate.Limiter
}

// NewRateLimiter creates a RateLimiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = DefaultRate
	}
	if config.Burst <= 0 {
		config.Burst = DefaultBurst
	}
	if config.MaxWait <= 0 {
		config.MaxWait = DefaultMaxWait
	}
	rl := &RateLimiter{config: config}
	rl.Reset()
	return rl
}

// Name returns the configured name.
func (rl *RateLimiter) Name() string {
	return rl.config.Name
}

// Allow takes one permit if available.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN takes n permits if all are available.
func (rl *RateLimiter) AllowN(n int) bool {
	return rl.bucket().AllowN(time.Now(), n)
}

// Wait blocks for one permit.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// WaitN blocks for n permits, at most MaxWait.
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	waitCtx, cancel := context.WithTimeout(ctx, rl.config.MaxWait)
	defer cancel()

	err := rl.bucket().WaitN(waitCtx, n)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return errors.Join(rl.denied(), err)
	}
}

// Execute runs op once a permit is obtained.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return rl.denied()
	}
	return op(ctx)
}

// Tokens returns the permits currently available.
func (rl *RateLimiter) Tokens() float64 {
	return rl.bucket().Tokens()
}

// Reset refills the bucket.
func (rl *RateLimiter) Reset() {
	b := rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst)
	rl.mu.Lock()
	rl.limiter = b
	rl.mu.Unlock()
}

func (rl *RateLimiter) bucket() *rate.Limiter {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.limiter
}

func (rl *RateLimiter) denied() error {
	if rl.config.Name == "" {
		return ErrRateLimitExceeded
	}
	return fmt.Errorf("%w: %s", ErrRateLimitExceeded, rl.config.Name)
}
