package demo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/calltrace/intercept"
	"github.com/jonwraymond/calltrace/resilience"
)

// Type is the metadata shared by the resilience example operations.
var Type = intercept.TypeMeta{
	Name:   "ResilienceHandler",
	Config: intercept.Configure(intercept.DefaultCallConfig()),
}

var inputParam = intercept.Param{Name: "input", Source: intercept.SourcePath}

func operation(name, description string) intercept.OperationMeta {
	cfg := intercept.DefaultCallConfig()
	cfg.Description = description
	return intercept.OperationMeta{
		Name:    name,
		Params:  []intercept.Param{inputParam},
		Config:  &cfg,
		Breaker: BreakerName,
	}
}

// Operation metadata, one per route.
var (
	OpCircuitBreaker = operation("CircuitBreakerExample", "Circuit Breaker Example")
	OpRateLimiter    = operation("RateLimiterExample", "Rate Limiter Example")
	OpRetry          = operation("RetryExample", "Retry Example")
	OpCombined       = operation("CombinedExample", "Combined Resilience Patterns Example")
)

type stringOp func(context.Context, string) (intercept.Response[string], error)

// Handler serves /api/resilience. Every operation runs through the
// interceptor.
type Handler struct {
	routes map[string]stringOp
}

// NewHandler creates a Handler over svc.
func NewHandler(svc *ResilienceService, i *intercept.Interceptor) *Handler {
	wrap := func(op intercept.OperationMeta, fn func(context.Context, string) (string, error)) stringOp {
		return intercept.Wrap1(i, Type, op, func(ctx context.Context, input string) (intercept.Response[string], error) {
			out, err := fn(ctx, input)
			return intercept.OK(out), err
		})
	}
	return &Handler{routes: map[string]stringOp{
		"circuit-breaker": wrap(OpCircuitBreaker, svc.CallExternalService),
		"rate-limiter":    wrap(OpRateLimiter, svc.RateLimitedOperation),
		"retry":           wrap(OpRetry, svc.RetryableOperation),
		"combined":        wrap(OpCombined, svc.CombinedOperation),
	}}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/resilience/{pattern}/{input}", h.serve)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	op, ok := h.routes[r.PathValue("pattern")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	resp, err := op(r.Context(), r.PathValue("input"))
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, resp.Status, resp.Value)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
