package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta identifies an intercepted call in spans and metrics.
type CallMeta struct {
	Type        string // enclosing component, e.g. "UserHandler"; optional
	Operation   string // required
	Description string
	Breaker     string // circuit breaker guarding the call
}

// ID is "Type.Operation", or the bare operation without a type.
func (m CallMeta) ID() string {
	if m.Type == "" {
		return m.Operation
	}
	return m.Type + "." + m.Operation
}

// SpanName is "call." + ID.
func (m CallMeta) SpanName() string { return "call." + m.ID() }

// Validate requires an operation name.
func (m CallMeta) Validate() error {
	if m.Operation == "" {
		return ErrMissingOperation
	}
	return nil
}

// attributes returns the call identity as attributes. The optional
// description and breaker are included only for spans.
func (m CallMeta) attributes(span bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("call.id", m.ID()),
		attribute.String("call.operation", m.Operation),
	}
	add := func(key, val string) {
		if val != "" {
			attrs = append(attrs, attribute.String(key, val))
		}
	}
	add("call.type", m.Type)
	if span {
		add("call.description", m.Description)
		add("call.breaker", m.Breaker)
	}
	return attrs
}

// Tracer opens one span per call.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: EndSpan is best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer wraps t. A nil t gives NoopTracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return NoopTracer()
	}
	return otelTracer{tracer: t}
}

func (t otelTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(true), attribute.Bool("call.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan marks the span failed when err is set, then ends it.
func (t otelTracer) EndSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("call.error", true))
	span.SetStatus(codes.Error, err.Error())
}

// NoopTracer returns a Tracer whose spans record nothing.
func NoopTracer() Tracer {
	return otelTracer{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
