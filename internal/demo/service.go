// Package demo holds the resilience example operations and the breaker
// transition notifier used by the demo server.
package demo

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jonwraymond/calltrace/observe"
	"github.com/jonwraymond/calltrace/resilience"
)

// BreakerName is the breaker guarding every example operation.
const BreakerName = "userService"

// Failures raised by the example operations.
var (
	ErrExternalFailed  = errors.New("External service failed")
	ErrRetryableFailed = errors.New("Temporary failure in retryable operation")
	ErrCombinedFailed  = errors.New("Failure in combined operation")
)

// Odds are the probabilities, in [0,1], that an operation attempt fails.
type Odds struct {
	External  float64
	Retryable float64
	Combined  float64
}

// DefaultOdds returns 0.3, 0.5 and 0.4.
func DefaultOdds() Odds {
	return Odds{External: 0.3, Retryable: 0.5, Combined: 0.4}
}

// ServiceConfig configures a ResilienceService.
type ServiceConfig struct {
	Odds      Odds
	Retry     resilience.RetryConfig
	RateLimit resilience.RateLimiterConfig

	// Rand returns a value in [0,1). Default: math/rand/v2 Float64.
	Rand func() float64

	Logger observe.Logger
}

// ResilienceService runs example operations under breaker, rate limiter
// and retry policies.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: CallExternalService and CombinedOperation never fail; their
//     fallbacks absorb every error. RateLimitedOperation returns
//     resilience.ErrRateLimitExceeded and RetryableOperation an error
//     matching resilience.ErrMaxRetriesExceeded.
type ResilienceService struct {
	breaker *resilience.CircuitBreaker
	limiter *resilience.RateLimiter
	retry   *resilience.Retry
	odds    Odds
	rand    func() float64
	logger  observe.Logger
}

// NewResilienceService creates a service whose breaker comes from breakers.
func NewResilienceService(breakers *resilience.Registry, cfg ServiceConfig) *ResilienceService {
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Retry.InitialDelay <= 0 {
		cfg.Retry.InitialDelay = 500 * time.Millisecond
	}
	if cfg.RateLimit.Name == "" {
		cfg.RateLimit.Name = BreakerName
	}
	return &ResilienceService{
		breaker: breakers.CircuitBreaker(BreakerName),
		limiter: resilience.NewRateLimiter(cfg.RateLimit),
		retry:   resilience.NewRetry(cfg.Retry),
		odds:    cfg.Odds,
		rand:    cfg.Rand,
		logger:  cfg.Logger,
	}
}

// CallExternalService calls a flaky dependency through the breaker and
// falls back to a canned response on any failure.
func (s *ResilienceService) CallExternalService(ctx context.Context, input string) (string, error) {
	out := ""
	exec := resilience.NewExecutor(
		resilience.WithCircuitBreaker(s.breaker),
		resilience.WithFallback(func(ctx context.Context, err error) error {
			s.logger.Warn(ctx, "fallback for external service",
				observe.F("input", input), observe.F("error", err.Error()))
			out = "Fallback response for: " + input
			return nil
		}),
	)
	err := exec.Execute(ctx, func(ctx context.Context) error {
		s.logger.Info(ctx, "calling external service", observe.F("input", input))
		if s.fails(s.odds.External) {
			s.logger.Warn(ctx, "external service call failed")
			return ErrExternalFailed
		}
		out = "External service response for: " + input
		return nil
	})
	return out, err
}

// RateLimitedOperation answers while the rate limiter has tokens.
func (s *ResilienceService) RateLimitedOperation(ctx context.Context, input string) (string, error) {
	out := ""
	err := s.limiter.Execute(ctx, func(ctx context.Context) error {
		s.logger.Info(ctx, "executing rate limited operation", observe.F("input", input))
		out = "Rate limited operation response for: " + input
		return nil
	})
	return out, err
}

// RetryableOperation retries a flaky step.
func (s *ResilienceService) RetryableOperation(ctx context.Context, input string) (string, error) {
	out := ""
	err := s.retry.Execute(ctx, func(ctx context.Context) error {
		s.logger.Info(ctx, "executing retryable operation", observe.F("input", input))
		if s.fails(s.odds.Retryable) {
			s.logger.Warn(ctx, "retryable operation failed, will retry")
			return ErrRetryableFailed
		}
		out = "Retryable operation response for: " + input
		return nil
	})
	return out, err
}

// CombinedOperation runs a flaky step under breaker, rate limiter and
// retry, with a fallback.
func (s *ResilienceService) CombinedOperation(ctx context.Context, input string) (string, error) {
	out := ""
	exec := resilience.NewExecutor(
		resilience.WithCircuitBreaker(s.breaker),
		resilience.WithRateLimiter(s.limiter),
		resilience.WithRetry(s.retry),
		resilience.WithFallback(func(ctx context.Context, err error) error {
			s.logger.Warn(ctx, "fallback for combined operation",
				observe.F("input", input), observe.F("error", err.Error()))
			out = "Fallback for combined operation: " + input
			return nil
		}),
	)
	err := exec.Execute(ctx, func(ctx context.Context) error {
		s.logger.Info(ctx, "executing combined operation", observe.F("input", input))
		if s.fails(s.odds.Combined) {
			s.logger.Warn(ctx, "combined operation failed")
			return ErrCombinedFailed
		}
		out = "Combined resilience operation response for: " + input
		return nil
	})
	return out, err
}

func (s *ResilienceService) fails(odds float64) bool {
	return s.rand() < odds
}
