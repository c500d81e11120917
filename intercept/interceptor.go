package intercept

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/calltrace/failure"
	"github.com/jonwraymond/calltrace/observe"
	"github.com/jonwraymond/calltrace/redact"
)

// Func is an operation run by Intercept.
type Func func(ctx context.Context) (any, error)

// Invocation is one call to intercept.
type Invocation struct {
	Type      TypeMeta
	Operation OperationMeta

	// Args are the call's arguments, matched to Operation.Params by index.
	Args []any
}

// Interceptor logs calls.
//
// Contract:
//   - Concurrency: safe for concurrent use. Calls share no mutable state.
//   - Transparency: Intercept returns the wrapped operation's result and
//     error unchanged and re-raises its panics.
//   - Errors: problems building or emitting records never reach the caller.
type Interceptor struct {
	sink       observe.Sink
	fallback   observe.Logger
	engine     *redact.Engine
	classifier *failure.Classifier
	tracer     observe.Tracer
	metrics    observe.Metrics
	newID      func() string
	now        func() time.Time
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithSink sets the record sink. The default forwards to the fallback
// logger.
func WithSink(s observe.Sink) Option {
	return func(i *Interceptor) {
		i.sink = s
	}
}

// WithLogger sets the logger that receives sink failures. When no sink is
// set, records are forwarded to it as well.
func WithLogger(l observe.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.fallback = l
		}
	}
}

// WithEngine sets the redaction engine.
func WithEngine(e *redact.Engine) Option {
	return func(i *Interceptor) {
		if e != nil {
			i.engine = e
		}
	}
}

// WithClassifier sets the failure classifier.
func WithClassifier(c *failure.Classifier) Option {
	return func(i *Interceptor) {
		if c != nil {
			i.classifier = c
		}
	}
}

// WithBreakers classifies failures against provider's breaker states.
func WithBreakers(provider failure.StateProvider) Option {
	return func(i *Interceptor) {
		i.classifier = failure.NewClassifier(provider)
	}
}

// WithInstruments adds tracing and metrics, and uses the instruments'
// logger as the fallback logger.
func WithInstruments(inst *observe.Instruments) Option {
	return func(i *Interceptor) {
		if inst == nil {
			return
		}
		if inst.Tracer != nil {
			i.tracer = inst.Tracer
		}
		if inst.Metrics != nil {
			i.metrics = inst.Metrics
		}
		if inst.Logger != nil {
			i.fallback = inst.Logger
		}
	}
}

// WithCallID tags every record of a call with an id from gen.
func WithCallID(gen func() string) Option {
	return func(i *Interceptor) {
		i.newID = gen
	}
}

// NewCallID returns a random UUID string.
func NewCallID() string {
	return uuid.NewString()
}

// WithClock overrides the time source used for elapsed time.
func WithClock(now func() time.Time) Option {
	return func(i *Interceptor) {
		if now != nil {
			i.now = now
		}
	}
}

// New creates an Interceptor.
func New(opts ...Option) *Interceptor {
	i := &Interceptor{
		fallback: observe.NopLogger(),
		tracer:   observe.NoopTracer(),
		metrics:  observe.NoopMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.engine == nil {
		i.engine = redact.NewEngine()
	}
	if i.classifier == nil {
		i.classifier = failure.NewClassifier(nil)
	}
	if i.sink == nil {
		i.sink = observe.LoggerSink(i.fallback)
	}
	i.sink = observe.SafeSink(i.sink, i.fallback)
	return i
}

// Engine returns the redaction engine used for records.
func (i *Interceptor) Engine() *redact.Engine {
	return i.engine
}

// Intercept runs fn once for inv and logs it.
func (i *Interceptor) Intercept(ctx context.Context, inv Invocation, fn Func) (any, error) {
	cfg := Resolve(inv.Operation, inv.Type)
	c := i.newCall(inv, cfg)

	ctx, span := i.tracer.StartSpan(ctx, c.meta)

	if cfg.LogParams {
		i.emit(ctx, c, c.paramsRecord)
	}

	start := i.now()
	result, panicked, err := invoke(ctx, fn)
	elapsed := i.now().Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}

	failed := err
	if panicked != nil {
		failed = panicked
	}

	if failed == nil {
		i.tracer.EndSpan(span, nil)
		i.metrics.RecordCall(ctx, c.meta, elapsed, observe.OutcomeSuccess)
		if cfg.LogResponse || cfg.LogExecutionTime {
			i.emit(ctx, c, func() observe.Record { return c.resultRecord(result, elapsed) })
		}
		return result, err
	}

	cls := i.classify(failed, inv.Operation.Breaker)
	outcome := observe.OutcomeError
	if cls.BreakerRejection {
		outcome = observe.OutcomeBreakerRejection
	}
	i.tracer.EndSpan(span, failed)
	i.metrics.RecordCall(ctx, c.meta, elapsed, outcome)
	i.emit(ctx, c, func() observe.Record { return c.failureRecord(ctx, failed, cls, elapsed) })

	if panicked != nil {
		panic(panicked.Value)
	}
	return result, err
}

// invoke calls fn, converting a panic into a PanicError.
func invoke(ctx context.Context, fn Func) (result any, panicked *failure.PanicError, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = &failure.PanicError{Value: r}
		}
	}()
	result, err = fn(ctx)
	return result, nil, err
}

func (i *Interceptor) classify(err error, breaker string) (cls failure.Classification) {
	defer func() {
		if r := recover(); r != nil {
			cls = failure.Classification{Reason: failure.ReasonNone}
		}
	}()
	return i.classifier.Classify(err, breaker)
}

// emit builds a record and hands it to the sink. A build failure is
// reported as a warning carrying the call's identity.
func (i *Interceptor) emit(ctx context.Context, c *call, build func() observe.Record) {
	rec, cause := safeBuild(build)
	if cause != nil {
		rec = c.buildFailureRecord(cause)
	}
	i.sink.Emit(ctx, rec)
}

func safeBuild(build func() observe.Record) (rec observe.Record, cause any) {
	defer func() {
		if r := recover(); r != nil {
			cause = r
		}
	}()
	return build(), nil
}
