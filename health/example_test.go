package health_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/jonwraymond/calltrace/health"
	"github.com/jonwraymond/calltrace/resilience"
)

func ExampleNewBreakerChecker() {
	reg := resilience.NewRegistry(resilience.CircuitBreakerConfig{ResetTimeout: time.Hour})
	reg.CircuitBreaker("userService").Trip()
	reg.CircuitBreaker("billing")

	result := health.NewBreakerChecker(reg).Check(context.Background())

	fmt.Println("Status:", result.Status)
	fmt.Println("Message:", result.Message)
	fmt.Println("billing:", result.Details["billing"])
	// Output:
	// Status: unhealthy
	// Message: open: userService
	// billing: closed
}

func ExampleNewCheckerFunc() {
	store := health.NewCheckerFunc("user-store", func(ctx context.Context) health.Result {
		return health.Healthy("3 users loaded")
	})

	result := store.Check(context.Background())

	fmt.Println("Checker name:", store.Name())
	fmt.Println("Status:", result.Status)
	fmt.Println("Message:", result.Message)
	// Output:
	// Checker name: user-store
	// Status: healthy
	// Message: 3 users loaded
}

func ExampleResult_WithDetails() {
	result := health.Degraded("half-open: userService").WithDetails(map[string]any{
		"userService": "half-open",
	})

	fmt.Println("Status:", result.Status)
	fmt.Println("userService:", result.Details["userService"])
	// Output:
	// Status: degraded
	// userService: half-open
}

func ExampleAggregator_OverallStatus() {
	agg := health.NewAggregator()
	results := map[string]health.Result{
		"breakers":   health.Degraded("half-open: userService"),
		"user-store": health.Healthy("ok"),
	}

	fmt.Println("Overall:", agg.OverallStatus(results))
	// Output:
	// Overall: degraded
}

func ExampleAggregator_CheckAll() {
	reg := resilience.NewRegistry(resilience.CircuitBreakerConfig{})
	reg.CircuitBreaker("userService")

	agg := health.NewAggregator(health.AggregatorConfig{
		Timeout:        time.Second,
		Parallel:       true,
		MaxConcurrency: 4,
	})
	agg.Register("breakers", health.NewBreakerChecker(reg))
	agg.Register("user-store", health.NewCheckerFunc("user-store", func(ctx context.Context) health.Result {
		return health.Healthy("ok")
	}))

	results := agg.CheckAll(context.Background())
	for _, name := range agg.CheckerNames() {
		fmt.Printf("%s: %s\n", name, results[name].Status)
	}
	// Output:
	// breakers: healthy
	// user-store: healthy
}

func ExampleReadinessHandler() {
	reg := resilience.NewRegistry(resilience.CircuitBreakerConfig{ResetTimeout: time.Hour})
	reg.CircuitBreaker("userService").Trip()

	agg := health.NewAggregator()
	agg.Register("breakers", health.NewBreakerChecker(reg))

	rec := httptest.NewRecorder()
	health.ReadinessHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	fmt.Println("Status code:", rec.Code)
	fmt.Println("Body:", rec.Body.String())
	// Output:
	// Status code: 503
	// Body: UNHEALTHY
}

func ExampleRegisterHandlers() {
	reg := resilience.NewRegistry(resilience.CircuitBreakerConfig{})
	reg.CircuitBreaker("userService")

	agg := health.NewAggregator()
	agg.Register("breakers", health.NewBreakerChecker(reg))

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/breakers", nil))

	var resp health.CheckResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	fmt.Println("Status code:", rec.Code)
	fmt.Println("Status:", resp.Status)
	fmt.Println("userService:", resp.Details["userService"])
	// Output:
	// Status code: 200
	// Status: healthy
	// userService: closed
}
