package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Outcome labels how a call ended.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeError            Outcome = "error"
	OutcomeBreakerRejection Outcome = "breaker_rejection"
)

// Metrics records call metrics.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: implementations must not panic.
type Metrics interface {
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, outcome Outcome)
}

// Instrument names.
const (
	MetricCalls             = "call.total"
	MetricErrors            = "call.errors"
	MetricBreakerRejections = "call.breaker_rejections"
	MetricDuration          = "call.duration_ms"
)

type callMetrics struct {
	calls      metric.Int64Counter
	errors     metric.Int64Counter
	rejections metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewMetrics creates the call instruments on meter. A rejection counts as
// an error as well.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	var errs []error
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return c
	}

	m := &callMetrics{
		calls:      counter(MetricCalls, "Intercepted calls", "{call}"),
		errors:     counter(MetricErrors, "Intercepted calls that failed", "{error}"),
		rejections: counter(MetricBreakerRejections, "Failures classified as circuit breaker rejections", "{error}"),
	}
	hist, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Intercepted call duration"),
		metric.WithUnit("ms"),
	)
	m.duration = hist
	if err := errors.Join(append(errs, err)...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *callMetrics) RecordCall(ctx context.Context, meta CallMeta, d time.Duration, outcome Outcome) {
	opt := metric.WithAttributes(meta.attributes(false)...)

	m.calls.Add(ctx, 1, opt)
	if outcome != OutcomeSuccess {
		m.errors.Add(ctx, 1, opt)
	}
	if outcome == OutcomeBreakerRejection {
		m.rejections.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(d.Microseconds())/1000, opt)
}

type noopMetrics struct{}

// NoopMetrics returns Metrics that records nothing.
func NoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordCall(context.Context, CallMeta, time.Duration, Outcome) {}
