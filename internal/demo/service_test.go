package demo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/calltrace/resilience"
)

func always(v float64) func() float64 { return func() float64 { return v } }

func newService(t *testing.T, rnd func() float64) (*ResilienceService, *resilience.Registry) {
	t.Helper()
	reg := resilience.NewRegistry(resilience.CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})
	svc := NewResilienceService(reg, ServiceConfig{
		Odds:      DefaultOdds(),
		Retry:     resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, Strategy: resilience.BackoffConstant},
		RateLimit: resilience.RateLimiterConfig{Rate: 0.001, Burst: 1},
		Rand:      rnd,
	})
	return svc, reg
}

func TestResilienceService_Success(t *testing.T) {
	svc, _ := newService(t, always(0.99))
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func(context.Context, string) (string, error)
		want string
	}{
		{name: "external", fn: svc.CallExternalService, want: "External service response for: x"},
		{name: "rate limited", fn: svc.RateLimitedOperation, want: "Rate limited operation response for: x"},
		{name: "retryable", fn: svc.RetryableOperation, want: "Retryable operation response for: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(ctx, "x")
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResilienceService_CombinedSuccess(t *testing.T) {
	svc, _ := newService(t, always(0.99))

	got, err := svc.CombinedOperation(context.Background(), "x")
	if err != nil || got != "Combined resilience operation response for: x" {
		t.Errorf("CombinedOperation() = (%q, %v)", got, err)
	}
}

func TestResilienceService_ExternalFallbackAndBreaker(t *testing.T) {
	svc, reg := newService(t, always(0))
	ctx := context.Background()

	for range 3 {
		got, err := svc.CallExternalService(ctx, "x")
		if err != nil {
			t.Fatalf("fallback should absorb errors, got %v", err)
		}
		if got != "Fallback response for: x" {
			t.Errorf("got %q", got)
		}
	}
	if s := reg.StateOf(BreakerName); s != resilience.StateOpen {
		t.Errorf("breaker state = %v, want open", s)
	}
}

func TestResilienceService_CombinedFallback(t *testing.T) {
	svc, _ := newService(t, always(0))

	got, err := svc.CombinedOperation(context.Background(), "x")
	if err != nil || got != "Fallback for combined operation: x" {
		t.Errorf("CombinedOperation() = (%q, %v)", got, err)
	}
}

func TestResilienceService_RetryExhausted(t *testing.T) {
	svc, _ := newService(t, always(0))

	_, err := svc.RetryableOperation(context.Background(), "x")
	if !errors.Is(err, resilience.ErrMaxRetriesExceeded) {
		t.Errorf("error = %v, want ErrMaxRetriesExceeded", err)
	}
	if !errors.Is(err, ErrRetryableFailed) {
		t.Errorf("error = %v, want cause ErrRetryableFailed", err)
	}
}

func TestResilienceService_RetryRecovers(t *testing.T) {
	calls := 0
	svc, _ := newService(t, func() float64 {
		calls++
		if calls == 1 {
			return 0
		}
		return 0.99
	})

	got, err := svc.RetryableOperation(context.Background(), "x")
	if err != nil || got != "Retryable operation response for: x" {
		t.Errorf("RetryableOperation() = (%q, %v)", got, err)
	}
	if calls != 2 {
		t.Errorf("attempts = %d, want 2", calls)
	}
}

func TestResilienceService_RateLimited(t *testing.T) {
	svc, _ := newService(t, always(0.99))
	ctx := context.Background()

	if _, err := svc.RateLimitedOperation(ctx, "x"); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	if _, err := svc.RateLimitedOperation(ctx, "x"); !errors.Is(err, resilience.ErrRateLimitExceeded) {
		t.Errorf("second call error = %v, want ErrRateLimitExceeded", err)
	}
}
