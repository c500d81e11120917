package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// Logger is the structured logger used across calltrace.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: logging is best-effort and never panics.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)

	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
}

// Field is one key/value pair of an entry.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...Field)  {}
func (noopLogger) Warn(context.Context, string, ...Field)  {}
func (noopLogger) Error(context.Context, string, ...Field) {}
func (noopLogger) Debug(context.Context, string, ...Field) {}
func (l noopLogger) With(...Field) Logger                  { return l }

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return noopLogger{} }

// RedactedFields are field keys whose values every Logger in this package
// replaces with "[REDACTED]".
var RedactedFields = []string{
	"input", "inputs",
	"password", "secret", "token",
	"api_key", "apiKey", "credential",
	"authorization", "cookie",
}

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{LevelDebug: "debug", LevelInfo: "info", LevelWarn: "warn", LevelError: "error"}

// ParseLogLevel parses a level name, ignoring case. Unknown names are
// LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(l)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return levelNames[l]
}

// structuredLogger writes one JSON object per line. Keys appear in the
// order timestamp, level, msg, bound fields, call fields.
type structuredLogger struct {
	level  LogLevel
	writer io.Writer
	mu     *sync.Mutex
	base   []Field
	now    func() time.Time
}

// NewLogger creates a new structured logger with the given level.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a new structured logger with a custom writer.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &structuredLogger{
		level:  ParseLogLevel(level),
		writer: w,
		mu:     &sync.Mutex{},
		now:    time.Now,
	}
}

// With returns a logger sharing the writer with fields bound.
func (l *structuredLogger) With(fields ...Field) Logger {
	base := make([]Field, 0, len(l.base)+len(fields))
	base = append(base, l.base...)
	base = append(base, fields...)
	return &structuredLogger{
		level:  l.level,
		writer: l.writer,
		mu:     l.mu,
		base:   base,
		now:    l.now,
	}
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelInfo, msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelWarn, msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelError, msg, fields)
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelDebug, msg, fields)
}

func (l *structuredLogger) log(_ context.Context, level LogLevel, msg string, fields []Field) {
	// Filter by level
	if level < l.level {
		return
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	writeJSONField(&buf, "timestamp", l.now().UTC().Format(time.RFC3339Nano), true)
	writeJSONField(&buf, "level", level.String(), false)
	writeJSONField(&buf, "msg", msg, false)
	for _, f := range l.base {
		writeField(&buf, f)
	}
	for _, f := range fields {
		writeField(&buf, f)
	}
	buf.WriteString("}\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(buf.Bytes())
}

func writeField(buf *bytes.Buffer, f Field) {
	if isRedactedField(f.Key) {
		writeJSONField(buf, f.Key, "[REDACTED]", false)
		return
	}
	writeJSONField(buf, f.Key, f.Value, false)
}

// writeJSONField appends "key":value. Values json cannot encode are written
// in their fmt form so one bad field never drops the entry.
func writeJSONField(buf *bytes.Buffer, key string, value any, first bool) {
	if !first {
		buf.WriteByte(',')
	}
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')

	v, err := marshalValue(value)
	if err != nil {
		v, _ = json.Marshal(fmt.Sprintf("%v", value))
	}
	buf.Write(v)
}

func marshalValue(value any) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observe: marshal panicked: %v", r)
		}
	}()
	if e, ok := value.(error); ok {
		return json.Marshal(e.Error())
	}
	return json.Marshal(value)
}

func isRedactedField(key string) bool {
	return slices.Contains(RedactedFields, key)
}

// Ensure structuredLogger implements Logger
var _ Logger = (*structuredLogger)(nil)
