package resilience

import "context"

// Pattern runs an operation under some protection. CircuitBreaker,
// RateLimiter and Retry implement it.
type Pattern interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

var (
	_ Pattern = (*CircuitBreaker)(nil)
	_ Pattern = (*RateLimiter)(nil)
	_ Pattern = (*Retry)(nil)
)

// FallbackFunc replaces an error that escaped the executor's patterns.
type FallbackFunc func(ctx context.Context, err error) error

// Executor layers a breaker, a rate limiter and a retry, outermost first,
// with an optional fallback around all three. A call the breaker rejects
// never takes a rate limiter token, and a whole retry run counts once
// against the breaker.
type Executor struct {
	breaker  *CircuitBreaker
	limiter  *RateLimiter
	retry    *Retry
	fallback FallbackFunc

	layers []Pattern
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor. Option order does not matter.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.breaker != nil {
		e.layers = append(e.layers, e.breaker)
	}
	if e.limiter != nil {
		e.layers = append(e.layers, e.limiter)
	}
	if e.retry != nil {
		e.layers = append(e.layers, e.retry)
	}
	return e
}

func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.breaker = cb }
}

func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.limiter = rl }
}

func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithFallback handles every error the layers return, rejections included.
func WithFallback(fn FallbackFunc) ExecutorOption {
	return func(e *Executor) { e.fallback = fn }
}

// Execute runs op through the layers.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	err := chain(op, e.layers)(ctx)
	if err != nil && e.fallback != nil {
		return e.fallback(ctx, err)
	}
	return err
}

// chain wraps op so that layers[0] runs outermost.
func chain(op func(context.Context) error, layers []Pattern) func(context.Context) error {
	for i := len(layers) - 1; i >= 0; i-- {
		p, inner := layers[i], op
		op = func(ctx context.Context) error { return p.Execute(ctx, inner) }
	}
	return op
}
