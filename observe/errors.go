package observe

import "errors"

var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: invalid log level")
	ErrInvalidLogFormat       = errors.New("observe: invalid log format")
)

var (
	// ErrNilObserver is returned by NewInstruments for a nil Observer.
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrMissingOperation is returned by CallMeta.Validate.
	ErrMissingOperation = errors.New("observe: call operation is required")
)
