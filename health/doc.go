// Package health reports service health for liveness and readiness checks.
//
// A Checker reports Healthy, Degraded or Unhealthy. BreakerChecker derives
// health from circuit breaker states: an open breaker is unhealthy and a
// half-open breaker is degraded. An Aggregator runs registered checkers
// (in parallel by default, bounded by a timeout) and folds their results.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (liveness), /readyz (readiness), /health (detailed
// JSON) and /health/<name> for every checker registered at that point.
package health
