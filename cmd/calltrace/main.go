// Command calltrace runs the demo HTTP server: user CRUD and resilience
// examples, every handler call logged through the interceptor.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonwraymond/calltrace/internal/config"
	"github.com/jonwraymond/calltrace/observe"
	"github.com/jonwraymond/calltrace/secret"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "calltrace: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	resolver, err := secret.Open(nil)
	if err != nil {
		return err
	}
	defer resolver.Close()

	cfg, err := config.Load(ctx, resolver)
	if err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe.ObserveConfig())
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}

	a, err := newApp(ctx, cfg, obs)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: a.handler}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "server listening", observe.F("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.logger.Info(context.Background(), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(srv.Shutdown(shutdownCtx), obs.Shutdown(shutdownCtx))
}
