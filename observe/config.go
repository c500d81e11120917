package observe

import (
	"fmt"
	"slices"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Accepted option values. The empty string selects the default.
var (
	tracingExporters = []string{"", "none", "otlp", "jaeger", "stdout"}
	metricsExporters = []string{"", "none", "otlp", "prometheus", "stdout"}
	logLevels        = []string{"", "debug", "info", "warn", "error"}
	logFormats       = []string{"", "json", "zap"}
)

// Config selects the telemetry an Observer sets up.
type Config struct {
	ServiceName string
	Version     string
	Tracing     TracingConfig
	Metrics     MetricsConfig
	Logging     LoggingConfig
}

// TracingConfig configures spans.
type TracingConfig struct {
	Enabled  bool
	Exporter string

	// SamplePct is the sampled fraction of root spans, in [0, 1].
	SamplePct float64
}

// MetricsConfig configures call metrics.
type MetricsConfig struct {
	Enabled  bool
	Exporter string
}

// LoggingConfig configures the Observer's Logger. Format "json" (the
// default) writes JSON lines to stderr; "zap" uses a zap production logger.
type LoggingConfig struct {
	Enabled bool
	Level   string
	Format  string
}

// Validate checks the enabled sections. Disabled sections are not checked.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.Tracing.Enabled {
		if err := oneOf(ErrInvalidTracingExporter, c.Tracing.Exporter, tracingExporters); err != nil {
			return err
		}
		if pct := c.Tracing.SamplePct; pct < 0 || pct > 1 {
			return fmt.Errorf("%w: got %f", ErrInvalidSamplePct, pct)
		}
	}
	if c.Metrics.Enabled {
		if err := oneOf(ErrInvalidMetricsExporter, c.Metrics.Exporter, metricsExporters); err != nil {
			return err
		}
	}
	if c.Logging.Enabled {
		if err := oneOf(ErrInvalidLogLevel, c.Logging.Level, logLevels); err != nil {
			return err
		}
		if err := oneOf(ErrInvalidLogFormat, c.Logging.Format, logFormats); err != nil {
			return err
		}
	}
	return nil
}

func oneOf(sentinel error, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%w: %q", sentinel, value)
}

func (c TracingConfig) sampler() sdktrace.Sampler {
	switch {
	case c.SamplePct >= 1:
		return sdktrace.AlwaysSample()
	case c.SamplePct <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SamplePct))
	}
}
