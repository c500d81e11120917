// Package observe provides the telemetry primitives for instrumented calls:
// structured loggers, log records and sinks, OpenTelemetry spans and call
// metrics.
//
// It performs no I/O beyond writing log lines and exporter setup. The
// intercept package wires these primitives around individual calls.
//
// Two logger backends ship with the package: a JSON line logger that keeps
// field order (NewLogger) and a zap adapter (NewZapLogger). Both replace the
// values of well-known secret keys listed in RedactedFields.
package observe
