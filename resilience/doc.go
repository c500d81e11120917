// Package resilience provides circuit breaking, retry and rate limiting for
// calls to unstable dependencies.
//
// # Patterns
//
//   - Circuit Breaker: stops calling a failing dependency after a threshold of
//     consecutive failures, then lets trial calls through again after a reset timeout.
//     Rejections are *CallNotPermittedError values that match ErrCircuitOpen.
//
//   - Registry: named breakers sharing defaults and a state-change callback.
//     It answers StateOf and AllStates queries for log classification and
//     health checks.
//
//   - Retry: retries failed operations with exponential, linear or constant
//     backoff. Exhaustion wraps both ErrMaxRetriesExceeded and the last error.
//
//   - Rate Limiter: token bucket on golang.org/x/time/rate.
//
// # Usage
//
//	breakers := resilience.NewRegistry(resilience.CircuitBreakerConfig{
//	    MaxFailures:  5,
//	    ResetTimeout: time.Minute,
//	    OnStateChange: func(name string, from, to resilience.State) {
//	        log.Printf("breaker %s: %s -> %s", name, from, to)
//	    },
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(breakers.CircuitBreaker("userService")),
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 100, Burst: 10})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return callExternalService(ctx)
//	})
package resilience
