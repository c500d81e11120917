package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/calltrace/observe"
	"github.com/jonwraymond/calltrace/secret"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Breaker.MaxFailures != 5 || cfg.Breaker.ResetTimeout != 30*time.Second {
		t.Errorf("Breaker = %+v", cfg.Breaker)
	}
	if cfg.Demo.ExternalOdds != 0.3 || cfg.Demo.RetryOdds != 0.5 || cfg.Demo.CombinedOdds != 0.4 {
		t.Errorf("Demo odds = %+v", cfg.Demo)
	}
	if cfg.Observe.LogFormat != "json" || cfg.Observe.ServiceName != "calltrace" {
		t.Errorf("Observe = %+v", cfg.Observe)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CALLTRACE_SERVER_ADDR", ":9090")
	t.Setenv("CALLTRACE_OBSERVE_LOG_FORMAT", "zap")
	t.Setenv("CALLTRACE_BREAKER_RESET_TIMEOUT", "5s")
	t.Setenv("CALLTRACE_DEMO_RETRY_ATTEMPTS", "7")

	cfg, err := Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Observe.LogFormat != "zap" {
		t.Errorf("LogFormat = %q", cfg.Observe.LogFormat)
	}
	if cfg.Breaker.ResetTimeout != 5*time.Second {
		t.Errorf("ResetTimeout = %v", cfg.Breaker.ResetTimeout)
	}
	if cfg.Demo.RetryAttempts != 7 {
		t.Errorf("RetryAttempts = %d", cfg.Demo.RetryAttempts)
	}
}

func TestLoad_ResolvesJWTKey(t *testing.T) {
	t.Setenv("CALLTRACE_TEST_SIGNING_KEY", "s3cret")
	t.Setenv("CALLTRACE_AUTH_JWT_KEY", "secretref:env:CALLTRACE_TEST_SIGNING_KEY")
	t.Setenv("CALLTRACE_AUTH_REQUIRED", "true")

	resolver, err := secret.Open(nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(context.Background(), resolver)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.JWTKey != "s3cret" {
		t.Errorf("JWTKey not resolved")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{
			name: "auth required without key",
			env:  map[string]string{"CALLTRACE_AUTH_REQUIRED": "true"},
			want: ErrMissingJWTKey,
		},
		{
			name: "unresolvable key",
			env:  map[string]string{"CALLTRACE_AUTH_JWT_KEY": "${CALLTRACE_TEST_UNSET_KEY}"},
			want: secret.ErrMissingEnv,
		},
		{
			name: "bad log format",
			env:  map[string]string{"CALLTRACE_OBSERVE_LOG_FORMAT": "xml"},
			want: observe.ErrInvalidLogFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(context.Background(), nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("CALLTRACE_SERVER_SHUTDOWN_TIMEOUT", "soon")
	if _, err := Load(context.Background(), nil); err == nil {
		t.Error("expected parse error")
	}
}

func TestObserveConfig(t *testing.T) {
	oc := ObserveConfig{ServiceName: "svc", LogLevel: "debug", LogFormat: "zap", Tracing: true, TraceExporter: "none", SamplePct: 0.5}
	got := oc.ObserveConfig()
	if got.ServiceName != "svc" || !got.Tracing.Enabled || got.Tracing.SamplePct != 0.5 || got.Logging.Format != "zap" {
		t.Errorf("ObserveConfig() = %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
