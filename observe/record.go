package observe

import (
	"context"
	"fmt"
	"sync"
)

// Record is one finished log entry. Fields keep insertion order.
type Record struct {
	Level   LogLevel
	Message string
	Fields  []Field
}

// Get returns the value of the first field named key.
func (r Record) Get(key string) (any, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns field keys in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Sink receives finished records.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Emit is best-effort. Wrap sinks that may panic with SafeSink.
type Sink interface {
	Emit(ctx context.Context, rec Record)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec Record)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, rec Record) { f(ctx, rec) }

// LoggerSink forwards records to a Logger at their level.
func LoggerSink(l Logger) Sink {
	return SinkFunc(func(ctx context.Context, rec Record) {
		switch rec.Level {
		case LevelDebug:
			l.Debug(ctx, rec.Message, rec.Fields...)
		case LevelWarn:
			l.Warn(ctx, rec.Message, rec.Fields...)
		case LevelError:
			l.Error(ctx, rec.Message, rec.Fields...)
		default:
			l.Info(ctx, rec.Message, rec.Fields...)
		}
	})
}

// SafeSink recovers panics raised by sink. A recovered panic is reported as
// a warning to fallback, or dropped when fallback is nil or panics too.
func SafeSink(sink Sink, fallback Logger) Sink {
	return SinkFunc(func(ctx context.Context, rec Record) {
		defer func() {
			if r := recover(); r != nil && fallback != nil {
				reportSinkFailure(ctx, fallback, rec, r)
			}
		}()
		sink.Emit(ctx, rec)
	})
}

func reportSinkFailure(ctx context.Context, fallback Logger, rec Record, cause any) {
	defer func() { _ = recover() }()
	fallback.Warn(ctx, "log sink failed",
		F("record.msg", rec.Message),
		F("error", fmt.Sprint(cause)),
	)
}

// Recorder is a Sink that keeps records in memory.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit stores a copy of rec.
func (r *Recorder) Emit(_ context.Context, rec Record) {
	fields := make([]Field, len(rec.Fields))
	copy(fields, rec.Fields)
	rec.Fields = fields

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Records returns the stored records in emission order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of stored records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Reset drops all stored records.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}

var (
	_ Sink = SinkFunc(nil)
	_ Sink = (*Recorder)(nil)
)
