package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// tracer records the order patterns run in.
type tracer struct {
	name string
	log  *[]string
}

func (p tracer) Execute(ctx context.Context, op func(context.Context) error) error {
	*p.log = append(*p.log, p.name)
	return op(ctx)
}

func TestChain_Order(t *testing.T) {
	var log []string
	op := chain(func(context.Context) error {
		log = append(log, "op")
		return nil
	}, []Pattern{tracer{"breaker", &log}, tracer{"limiter", &log}, tracer{"retry", &log}})

	if err := op(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(log); got != 4 || log[0] != "breaker" || log[3] != "op" {
		t.Errorf("order = %v", log)
	}
}

func TestNewExecutor_Layers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	rl := NewRateLimiter(RateLimiterConfig{})
	r := NewRetry(RetryConfig{})

	if n := len(NewExecutor().layers); n != 0 {
		t.Errorf("empty executor has %d layers", n)
	}
	e := NewExecutor(WithRetry(r), WithRateLimiter(rl), WithCircuitBreaker(cb))
	if len(e.layers) != 3 || e.layers[0] != Pattern(cb) || e.layers[1] != Pattern(rl) || e.layers[2] != Pattern(r) {
		t.Errorf("layers = %v, want breaker, limiter, retry", e.layers)
	}
}

func TestExecutor_Execute(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		opts    func() []ExecutorOption
		op      func(calls *int) func(context.Context) error
		wantErr error
		calls   int
	}{
		{
			name: "no patterns",
			opts: func() []ExecutorOption { return nil },
			op: func(calls *int) func(context.Context) error {
				return func(context.Context) error { *calls++; return boom }
			},
			wantErr: boom,
			calls:   1,
		},
		{
			name: "retry recovers",
			opts: func() []ExecutorOption {
				return []ExecutorOption{WithRetry(NewRetry(RetryConfig{InitialDelay: time.Millisecond}))}
			},
			op: func(calls *int) func(context.Context) error {
				return func(context.Context) error {
					*calls++
					if *calls < 3 {
						return boom
					}
					return nil
				}
			},
			calls: 3,
		},
		{
			name: "open breaker",
			opts: func() []ExecutorOption {
				cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "userService", ResetTimeout: time.Hour})
				cb.Trip()
				return []ExecutorOption{WithCircuitBreaker(cb)}
			},
			op: func(calls *int) func(context.Context) error {
				return func(context.Context) error { *calls++; return nil }
			},
			wantErr: ErrCircuitOpen,
		},
		{
			name: "limiter denies",
			opts: func() []ExecutorOption {
				rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
				rl.Allow()
				return []ExecutorOption{WithRateLimiter(rl)}
			},
			op: func(calls *int) func(context.Context) error {
				return func(context.Context) error { *calls++; return nil }
			},
			wantErr: ErrRateLimitExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			err := NewExecutor(tt.opts()...).Execute(context.Background(), tt.op(&calls))
			if tt.wantErr == nil && err != nil || tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.calls {
				t.Errorf("calls = %d, want %d", calls, tt.calls)
			}
		})
	}
}

func TestExecutor_RejectedCallKeepsRateLimitToken(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{ResetTimeout: time.Hour})
	cb.Trip()
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})

	e := NewExecutor(WithCircuitBreaker(cb), WithRateLimiter(rl))
	_ = e.Execute(context.Background(), func(context.Context) error { return nil })

	if !rl.Allow() {
		t.Error("breaker rejection consumed a rate limiter token")
	}
}

func TestExecutor_Fallback(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "userService", ResetTimeout: time.Hour})
	cb.Trip()

	var seen error
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithFallback(func(_ context.Context, err error) error {
			seen = err
			return nil
		}),
	)

	err := e.Execute(context.Background(), func(context.Context) error {
		t.Error("operation ran while open")
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v, want fallback to absorb it", err)
	}
	var rejected *CallNotPermittedError
	if !errors.As(seen, &rejected) || rejected.Breaker != "userService" {
		t.Errorf("fallback saw %v, want userService rejection", seen)
	}
}

func TestExecutor_RetriesCountOnceAgainstBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)

	err := e.Execute(context.Background(), func(context.Context) error { return errors.New("down") })
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("Execute() error = %v, want ErrMaxRetriesExceeded", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State = %v, want closed after one exhausted run", cb.State())
	}
}
