package observe

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/calltrace/observe/exporters"
)

// Observer owns the process's telemetry providers.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: Shutdown honors the deadline of ctx while flushing.
//   - Errors: Shutdown joins the errors of every provider.
type Observer interface {
	Tracer() trace.Tracer
	Meter() metric.Meter
	Logger() Logger
	Shutdown(ctx context.Context) error
}

type observer struct {
	tracer trace.Tracer
	meter  metric.Meter
	logger Logger

	// shutdown holds provider shutdown funcs in setup order.
	shutdown []func(context.Context) error
}

// NewObserver validates cfg and builds the enabled providers. Disabled
// sections get no-op implementations. Enabled providers are installed as
// the otel globals.
func NewObserver(ctx context.Context, cfg Config) (Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("observe: resource: %w", err)
	}

	o := &observer{
		tracer: tracenoop.NewTracerProvider().Tracer(cfg.ServiceName),
		meter:  metricnoop.NewMeterProvider().Meter(cfg.ServiceName),
		logger: NopLogger(),
	}

	if cfg.Tracing.Enabled {
		if err := o.setupTracing(ctx, cfg, res); err != nil {
			return nil, errors.Join(err, o.Shutdown(ctx))
		}
	}
	if cfg.Metrics.Enabled {
		if err := o.setupMetrics(ctx, cfg, res); err != nil {
			return nil, errors.Join(err, o.Shutdown(ctx))
		}
	}
	if cfg.Logging.Enabled {
		logger, err := newConfiguredLogger(cfg)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("observe: logging: %w", err), o.Shutdown(ctx))
		}
		o.logger = logger
	}
	return o, nil
}

func (o *observer) setupTracing(ctx context.Context, cfg Config, res *resource.Resource) error {
	exp, err := exporters.NewTracingExporter(ctx, cfg.Tracing.Exporter)
	if err != nil {
		return fmt.Errorf("observe: tracing: %w", err)
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.Tracing.sampler()),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	o.tracer = tp.Tracer(cfg.ServiceName)
	o.shutdown = append(o.shutdown, func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("tracer shutdown: %w", err)
		}
		return nil
	})
	return nil
}

func (o *observer) setupMetrics(ctx context.Context, cfg Config, res *resource.Resource) error {
	reader, err := exporters.NewMetricsReader(ctx, cfg.Metrics.Exporter)
	if err != nil {
		return fmt.Errorf("observe: metrics: %w", err)
	}
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if reader != nil {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	o.meter = mp.Meter(cfg.ServiceName)
	o.shutdown = append(o.shutdown, func(ctx context.Context) error {
		if err := mp.Shutdown(ctx); err != nil {
			return fmt.Errorf("meter shutdown: %w", err)
		}
		return nil
	})
	return nil
}

func newConfiguredLogger(cfg Config) (Logger, error) {
	if cfg.Logging.Format != "zap" {
		return NewLogger(cfg.Logging.Level).With(F("service", cfg.ServiceName)), nil
	}
	zl, err := NewZapProduction(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return NewZapLogger(zl).With(F("service", cfg.ServiceName)), nil
}

func (o *observer) Tracer() trace.Tracer { return o.tracer }
func (o *observer) Meter() metric.Meter  { return o.meter }
func (o *observer) Logger() Logger       { return o.logger }

func (o *observer) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range o.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}
