package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/calltrace/auth"
	"github.com/jonwraymond/calltrace/health"
	"github.com/jonwraymond/calltrace/intercept"
	"github.com/jonwraymond/calltrace/internal/config"
	"github.com/jonwraymond/calltrace/internal/demo"
	"github.com/jonwraymond/calltrace/internal/users"
	"github.com/jonwraymond/calltrace/observe"
	"github.com/jonwraymond/calltrace/redact"
	"github.com/jonwraymond/calltrace/resilience"
)

// app is the wired demo server.
type app struct {
	handler  http.Handler
	logger   observe.Logger
	breakers *resilience.Registry
}

// newApp wires every component from cfg. obs supplies logging and
// telemetry.
func newApp(ctx context.Context, cfg *config.Config, obs observe.Observer) (*app, error) {
	logger := obs.Logger()

	inst, err := observe.NewInstruments(obs)
	if err != nil {
		return nil, fmt.Errorf("instruments: %w", err)
	}

	engine, err := newEngine(cfg.Redaction)
	if err != nil {
		return nil, err
	}

	notifier := demo.NewTransitionNotifier(logger, nil)
	breakers := resilience.NewRegistry(resilience.CircuitBreakerConfig{
		MaxFailures:   cfg.Breaker.MaxFailures,
		ResetTimeout:  cfg.Breaker.ResetTimeout,
		OnStateChange: notifier.OnStateChange,
	})

	ic := intercept.New(
		intercept.WithInstruments(inst),
		intercept.WithEngine(engine),
		intercept.WithBreakers(breakers),
		intercept.WithCallID(intercept.NewCallID),
	)

	store := users.NewMemoryStore()
	if err := users.Seed(ctx, store); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	svc := demo.NewResilienceService(breakers, demo.ServiceConfig{
		Odds: demo.Odds{
			External:  cfg.Demo.ExternalOdds,
			Retryable: cfg.Demo.RetryOdds,
			Combined:  cfg.Demo.CombinedOdds,
		},
		Retry: resilience.RetryConfig{
			MaxAttempts:  cfg.Demo.RetryAttempts,
			InitialDelay: cfg.Demo.RetryDelay,
			Jitter:       true,
		},
		RateLimit: resilience.RateLimiterConfig{
			Rate:  cfg.Demo.RateLimit,
			Burst: cfg.Demo.RateBurst,
		},
		Logger: logger.With(observe.F("component", "resilience-demo")),
	})

	api := http.NewServeMux()
	users.NewHandler(users.NewService(store), ic).Register(api)
	demo.NewHandler(svc, ic).Register(api)

	var apiHandler http.Handler = intercept.Middleware(api)
	if cfg.Auth.JWTKey != "" {
		jwtAuth := auth.NewJWTAuthenticator(auth.JWTConfig{
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		}, auth.NewStaticKeyProvider([]byte(cfg.Auth.JWTKey)))
		apiHandler = auth.Middleware(jwtAuth, auth.MiddlewareConfig{
			Required: cfg.Auth.Required,
			OnError: func(r *http.Request, err error) {
				logger.Error(r.Context(), "authentication error", observe.F("error", err.Error()))
			},
		})(apiHandler)
	}

	agg := health.NewAggregator()
	agg.Register("breakers", health.NewBreakerChecker(breakers))
	agg.Register("users", health.NewCheckerFunc("users", func(ctx context.Context) health.Result {
		list, err := store.List(ctx)
		if err != nil {
			return health.Unhealthy("user store unavailable", err)
		}
		return health.Healthy("user store available").WithDetails(map[string]any{"count": len(list)})
	}))

	root := http.NewServeMux()
	root.Handle("/api/", apiHandler)
	health.RegisterHandlers(root, agg)
	if cfg.Observe.Metrics && cfg.Observe.MetricsExporter == "prometheus" {
		root.Handle("/metrics", promhttp.Handler())
	}

	return &app{handler: root, logger: logger, breakers: breakers}, nil
}

// newEngine builds the redaction engine, merging the optional rule file.
func newEngine(cfg config.RedactionConfig) (*redact.Engine, error) {
	var opts []redact.RegistryOption
	if cfg.RulesFile != "" {
		f, err := os.Open(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("open redaction rules: %w", err)
		}
		defer f.Close()
		set, err := redact.LoadRules(f)
		if err != nil {
			return nil, err
		}
		opts = append(opts, redact.WithRuleSet(set))
	}
	return redact.NewEngine(redact.WithRegistry(redact.NewRegistry(opts...))), nil
}
