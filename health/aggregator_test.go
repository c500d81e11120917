package health

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func fixed(r Result) func(context.Context) Result {
	return func(context.Context) Result { return r }
}

func TestNewAggregator_Defaults(t *testing.T) {
	if agg := NewAggregator(); agg.config.Timeout != DefaultTimeout || !agg.config.Parallel {
		t.Errorf("NewAggregator() config = %+v", agg.config)
	}
	if agg := NewAggregator(AggregatorConfig{Timeout: time.Second}); agg.config.Parallel {
		t.Error("explicit config should keep Parallel=false")
	}
}

func TestAggregator_RegistrationOrder(t *testing.T) {
	agg := NewAggregator()
	for _, name := range []string{"breakers", "users", "store"} {
		agg.Register(name, NewCheckerFunc(name, fixed(Healthy(name))))
	}
	agg.Register("breakers", NewCheckerFunc("breakers", fixed(Degraded("replaced"))))
	agg.Unregister("users")
	agg.Unregister("missing")

	if got, want := agg.CheckerNames(), []string{"breakers", "store"}; !slices.Equal(got, want) {
		t.Errorf("CheckerNames() = %v, want %v", got, want)
	}
	r, err := agg.Check(context.Background(), "breakers")
	if err != nil {
		t.Fatal(err)
	}
	if r.Message != "replaced" {
		t.Errorf("Message = %q, want replaced", r.Message)
	}
}

func TestAggregator_CheckNotFound(t *testing.T) {
	_, err := NewAggregator().Check(context.Background(), "nope")
	if !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check() error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			agg := NewAggregator(AggregatorConfig{Parallel: parallel})
			agg.Register("a", NewCheckerFunc("a", fixed(Healthy("ok"))))
			agg.Register("b", NewCheckerFunc("b", fixed(Degraded("slow"))))

			results := agg.CheckAll(context.Background())
			if len(results) != 2 {
				t.Fatalf("len(results) = %d, want 2", len(results))
			}
			if results["b"].Status != StatusDegraded {
				t.Errorf("b = %v", results["b"].Status)
			}
			if agg.OverallStatus(results) != StatusDegraded {
				t.Errorf("OverallStatus = %v", agg.OverallStatus(results))
			}
		})
	}

	if got := NewAggregator().CheckAll(context.Background()); len(got) != 0 {
		t.Errorf("empty CheckAll = %v", got)
	}
}

func TestAggregator_Failures(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 30 * time.Millisecond, Parallel: true})
	agg.Register("slow", NewCheckerFunc("slow", func(context.Context) Result {
		time.Sleep(200 * time.Millisecond)
		return Healthy("late")
	}))
	agg.Register("boom", NewCheckerFunc("boom", func(context.Context) Result {
		panic("kaput")
	}))

	results := agg.CheckAll(context.Background())
	if r := results["slow"]; r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Errorf("slow = %v, %v", r.Status, r.Error)
	}
	if r := results["boom"]; r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckPanicked) {
		t.Errorf("boom = %v, %v", r.Status, r.Error)
	}
}

func TestAggregator_OverallStatus(t *testing.T) {
	agg := NewAggregator()
	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"healthy", map[string]Result{"a": Healthy("")}, StatusHealthy},
		{"degraded", map[string]Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]Result{"a": Degraded(""), "b": Unhealthy("", nil)}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := agg.OverallStatus(tt.results); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregator_Checker(t *testing.T) {
	agg := NewAggregator()
	agg.Register("breakers", NewCheckerFunc("breakers", fixed(Unhealthy("open: userService", nil))))
	agg.Register("users", NewCheckerFunc("users", fixed(Healthy("ok"))))

	c := agg.Checker()
	if c.Name() != "aggregate" {
		t.Errorf("Name() = %q", c.Name())
	}
	r := c.Check(context.Background())
	if r.Status != StatusUnhealthy || r.Message != "some checks failed" {
		t.Errorf("Check() = %v %q", r.Status, r.Message)
	}
	if r.Details["breakers"] != "unhealthy" || r.Details["users"] != "healthy" {
		t.Errorf("Details = %v", r.Details)
	}
}

func TestAggregator_CheckAllMaxConcurrency(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Parallel: true, MaxConcurrency: 2})

	var running, peak atomic.Int32
	for i := range 6 {
		name := fmt.Sprintf("c%d", i)
		agg.Register(name, NewCheckerFunc(name, func(context.Context) Result {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return Healthy("ok")
		}))
	}

	if results := agg.CheckAll(context.Background()); len(results) != 6 {
		t.Fatalf("len(results) = %d, want 6", len(results))
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}
