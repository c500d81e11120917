// Package exporters builds the OpenTelemetry trace exporters and metric
// readers selected by name in observe.Config.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	ErrUnknownExporter       = errors.New("exporters: unknown exporter")
	ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")
)

// Endpoint variables, any one of which enables a remote exporter.
var (
	otlpTraceEnv   = []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"}
	otlpMetricEnv  = []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"}
	jaegerTraceEnv = []string{"OTEL_EXPORTER_JAEGER_ENDPOINT"}
)

// Option configures exporter construction.
type Option func(*settings)

type settings struct {
	out    io.Writer
	getenv func(string) string
}

// WithWriter sets where stdout exporters write. Default: os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.out = w
		}
	}
}

// WithGetenv replaces os.Getenv for endpoint lookup.
func WithGetenv(fn func(string) string) Option {
	return func(s *settings) {
		if fn != nil {
			s.getenv = fn
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{out: os.Stdout, getenv: os.Getenv}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// requireEndpoint fails unless one of keys is set.
func (s settings) requireEndpoint(keys []string) error {
	for _, k := range keys {
		if s.getenv(k) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: set %s", ErrEndpointNotConfigured, strings.Join(keys, " or "))
}

// NewTracingExporter returns the span exporter called name: stdout, otlp,
// jaeger (sent as OTLP) or none.
func NewTracingExporter(ctx context.Context, name string, opts ...Option) (sdktrace.SpanExporter, error) {
	s := newSettings(opts)
	switch name {
	case "", "none":
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(s.out))
	case "otlp", "jaeger":
		env := otlpTraceEnv
		if name == "jaeger" {
			env = jaegerTraceEnv
		}
		if err := s.requireEndpoint(env); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, name)
}

// NewMetricsReader returns the metric reader called name: stdout, otlp,
// prometheus or none. Push exporters are wrapped in a periodic reader.
func NewMetricsReader(ctx context.Context, name string, opts ...Option) (sdkmetric.Reader, error) {
	s := newSettings(opts)
	var (
		exp sdkmetric.Exporter
		err error
	)
	switch name {
	case "", "none":
		return sdkmetric.NewManualReader(), nil
	case "prometheus":
		reader, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("exporters: prometheus: %w", err)
		}
		return reader, nil
	case "stdout":
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(s.out))
	case "otlp":
		if err := s.requireEndpoint(otlpMetricEnv); err != nil {
			return nil, err
		}
		exp, err = otlpmetricgrpc.New(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, name)
	}
	if err != nil {
		return nil, fmt.Errorf("exporters: %s metrics: %w", name, err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}
