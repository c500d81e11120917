// Package config loads the demo server's configuration from the
// environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/jonwraymond/calltrace/observe"
	"github.com/jonwraymond/calltrace/secret"
)

// Prefix is prepended to every variable name, e.g. CALLTRACE_SERVER_ADDR.
const Prefix = "CALLTRACE"

// ErrMissingJWTKey indicates auth is required but no signing key is set.
var ErrMissingJWTKey = errors.New("config: jwt key required when auth is required")

// Config holds all process configuration.
type Config struct {
	Server    ServerConfig
	Observe   ObserveConfig
	Auth      AuthConfig
	Breaker   BreakerConfig
	Demo      DemoConfig
	Redaction RedactionConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// ObserveConfig holds logging and telemetry configuration.
type ObserveConfig struct {
	ServiceName     string  `envconfig:"SERVICE_NAME" default:"calltrace"`
	Version         string  `envconfig:"VERSION" default:"dev"`
	LogLevel        string  `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string  `envconfig:"LOG_FORMAT" default:"json"`
	Tracing         bool    `envconfig:"TRACING" default:"false"`
	TraceExporter   string  `envconfig:"TRACE_EXPORTER" default:"stdout"`
	SamplePct       float64 `envconfig:"SAMPLE_PCT" default:"1.0"`
	Metrics         bool    `envconfig:"METRICS" default:"false"`
	MetricsExporter string  `envconfig:"METRICS_EXPORTER" default:"prometheus"`
}

// AuthConfig holds JWT authentication configuration. JWTKey may be a
// secret reference such as secretref:env:JWT_SIGNING_KEY.
type AuthConfig struct {
	Required bool   `envconfig:"REQUIRED" default:"false"`
	JWTKey   string `envconfig:"JWT_KEY"`
	Issuer   string `envconfig:"ISSUER"`
	Audience string `envconfig:"AUDIENCE"`
}

// BreakerConfig holds the defaults for named circuit breakers.
type BreakerConfig struct {
	MaxFailures  int           `envconfig:"MAX_FAILURES" default:"5"`
	ResetTimeout time.Duration `envconfig:"RESET_TIMEOUT" default:"30s"`
}

// DemoConfig tunes the resilience example operations.
type DemoConfig struct {
	ExternalOdds  float64       `envconfig:"EXTERNAL_ODDS" default:"0.3"`
	RetryOdds     float64       `envconfig:"RETRY_ODDS" default:"0.5"`
	CombinedOdds  float64       `envconfig:"COMBINED_ODDS" default:"0.4"`
	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `envconfig:"RETRY_DELAY" default:"500ms"`
	RateLimit     float64       `envconfig:"RATE_LIMIT" default:"10"`
	RateBurst     int           `envconfig:"RATE_BURST" default:"10"`
}

// RedactionConfig points at an optional YAML rule file.
type RedactionConfig struct {
	RulesFile string `envconfig:"RULES_FILE"`
}

// Load reads the environment and resolves secret-bearing values through
// resolver. A nil resolver only expands ${VAR} references.
func Load(ctx context.Context, resolver *secret.Resolver) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}

	if cfg.Auth.JWTKey != "" {
		key, err := resolver.ResolveValue(ctx, cfg.Auth.JWTKey)
		if err != nil {
			return nil, fmt.Errorf("config: resolve jwt key: %w", err)
		}
		cfg.Auth.JWTKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints and the observe settings.
func (c *Config) Validate() error {
	if c.Auth.Required && c.Auth.JWTKey == "" {
		return ErrMissingJWTKey
	}
	oc := c.Observe.ObserveConfig()
	return oc.Validate()
}

// ObserveConfig converts c to an observe.Config.
func (c ObserveConfig) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     c.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Tracing,
			Exporter:  c.TraceExporter,
			SamplePct: c.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Metrics,
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
			Format:  c.LogFormat,
		},
	}
}
