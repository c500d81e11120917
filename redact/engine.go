package redact

import (
	"encoding"
	"fmt"
	"reflect"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Loggable lets a type supply the value that is rendered in its place.
// The returned value is rendered normally, rules included.
type Loggable interface {
	LogValue() any
}

// Engine renders values with field redaction applied.
//
// An Engine holds no per-call state and is safe for concurrent use.
type Engine struct {
	registry *Registry
	domain   []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the rule registry. The default is a private registry
// that derives tables from struct tags only.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithDomainPackages sets the packages whose struct types are rendered
// structurally: a package matches a prefix when it equals it or lies
// below it. Other named types print in their natural form.
//
// Struct types that carry at least one rule are always rendered
// structurally. The default is DefaultDomain.
func WithDomainPackages(prefixes ...string) Option {
	return func(e *Engine) {
		e.domain = append(e.domain, prefixes...)
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if len(e.domain) == 0 {
		e.domain = []string{DefaultDomain()}
	}
	return e
}

var defaultDomain = sync.OnceValue(func() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Path != "" && bi.Main.Path != "command-line-arguments" {
		return bi.Main.Path
	}
	// No module information: fall back to the module holding this package.
	pkg := reflect.TypeFor[Engine]().PkgPath()
	return strings.TrimSuffix(pkg, "/redact")
})

// DefaultDomain is the main module path from the build info, or this
// module's path when the binary carries none.
func DefaultDomain() string {
	return defaultDomain()
}

// Registry returns the engine's rule registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Render returns the redacted text form of value. It never panics.
func (e *Engine) Render(value any) (out string) {
	if value == nil {
		return Null
	}
	defer func() {
		if p := recover(); p != nil {
			out = fallback(value)
		}
	}()

	r := &renderer{engine: e, active: make(map[visit]struct{})}
	var b strings.Builder
	r.render(&b, reflect.ValueOf(value), nil, "")
	return b.String()
}

// Mask applies rule to the string form of value, the same way a field
// carrying rule is rendered.
func (e *Engine) Mask(value any, rule Rule) string {
	if value == nil {
		return Null
	}
	s, ok := fieldText(reflect.ValueOf(value))
	if !ok {
		return Unavailable
	}
	return Mask(s, rule)
}

// visit identifies a reference value on the active traversal path.
type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// renderer carries the active-path set of a single Render call.
type renderer struct {
	engine *Engine
	active map[visit]struct{}
}

// render writes v. scope is the table of the outermost struct being
// rendered and path the dotted field path from it, used for nested rules.
func (r *renderer) render(b *strings.Builder, v reflect.Value, scope *Table, path string) {
	if !v.IsValid() {
		b.WriteString(Null)
		return
	}

	if lv, ok := loggable(v); ok {
		next := reflect.ValueOf(lv)
		if next.IsValid() && next.Type() == v.Type() {
			// LogValue returned its own type; render it as-is to avoid looping.
			r.renderKind(b, next, scope, path)
			return
		}
		r.render(b, next, scope, path)
		return
	}
	r.renderKind(b, v, scope, path)
}

func (r *renderer) renderKind(b *strings.Builder, v reflect.Value, scope *Table, path string) {
	if text, ok := r.foreignText(v); ok {
		b.WriteString(text)
		return
	}
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			b.WriteString(Null)
			return
		}
		r.render(b, v.Elem(), scope, path)

	case reflect.Pointer:
		if v.IsNil() {
			b.WriteString(Null)
			return
		}
		if elem := v.Type().Elem(); elem.Kind() == reflect.Struct && !r.isDomain(elem) {
			writeNatural(b, v)
			return
		}
		r.guard(b, v, 0, func() {
			r.render(b, v.Elem(), scope, path)
		})

	case reflect.Slice:
		if v.IsNil() {
			b.WriteString(Null)
			return
		}
		r.guard(b, v, v.Len(), func() {
			r.renderSeq(b, v, scope, path)
		})

	case reflect.Array:
		r.renderSeq(b, v, scope, path)

	case reflect.Map:
		if v.IsNil() {
			b.WriteString(Null)
			return
		}
		r.guard(b, v, 0, func() {
			r.renderMap(b, v, scope, path)
		})

	case reflect.Struct:
		if !r.isDomain(v.Type()) {
			writeNatural(b, v)
			return
		}
		r.renderStruct(b, v, scope, path)

	default:
		writeNatural(b, v)
	}
}

// guard runs fn unless v is already on the active path.
func (r *renderer) guard(b *strings.Builder, v reflect.Value, n int, fn func()) {
	key := visit{typ: v.Type(), ptr: v.Pointer(), len: n}
	if key.ptr == 0 {
		fn()
		return
	}
	if _, seen := r.active[key]; seen {
		b.WriteString(CyclicPlaceholder)
		return
	}
	r.active[key] = struct{}{}
	defer delete(r.active, key)
	fn()
}

func (r *renderer) renderSeq(b *strings.Builder, v reflect.Value, scope *Table, path string) {
	b.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		r.renderIsolated(b, v.Index(i), scope, path)
	}
	b.WriteByte(']')
}

// renderMap writes entries sorted by key text so output is deterministic.
func (r *renderer) renderMap(b *strings.Builder, v reflect.Value, scope *Table, path string) {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		var kb strings.Builder
		writeNatural(&kb, iter.Key())
		entries = append(entries, entry{key: kb.String(), val: iter.Value()})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.key)
		b.WriteByte('=')
		r.renderIsolated(b, e.val, scope, path)
	}
	b.WriteByte('}')
}

func (r *renderer) renderStruct(b *strings.Builder, v reflect.Value, scope *Table, path string) {
	t := v.Type()
	table := r.engine.registry.Table(t)
	if scope == nil {
		scope, path = table, ""
	}

	b.WriteString(typeName(t))
	b.WriteByte('{')
	for i := 0; i < t.NumField(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		f := t.Field(i)
		b.WriteString(f.Name)
		b.WriteByte('=')

		fieldPath := f.Name
		if path != "" {
			fieldPath = path + "." + f.Name
		}
		if rule, ok := lookup(scope, table, fieldPath, f.Name); ok {
			writeMasked(b, v.Field(i), rule)
			continue
		}
		r.renderIsolated(b, v.Field(i), scope, fieldPath)
	}
	b.WriteByte('}')
}

// renderIsolated renders v into its own buffer so that a failure while
// reading it costs only this value, not the enclosing record.
func (r *renderer) renderIsolated(b *strings.Builder, v reflect.Value, scope *Table, path string) {
	var sub strings.Builder
	ok := func() (ok bool) {
		defer func() {
			if p := recover(); p != nil {
				ok = false
			}
		}()
		r.render(&sub, v, scope, path)
		return true
	}()
	if !ok {
		b.WriteString(Unavailable)
		return
	}
	b.WriteString(sub.String())
}

func (r *renderer) isDomain(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	if t.PkgPath() == "" {
		// Unnamed struct literal types.
		return true
	}
	return r.inDomain(t.PkgPath()) || r.engine.registry.Table(t).Len() > 0
}

func (r *renderer) inDomain(pkg string) bool {
	for _, prefix := range r.engine.domain {
		if pkg == prefix || strings.HasPrefix(pkg, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// foreignText renders a composite named type from outside the domain
// through its String or MarshalText method.
func (r *renderer) foreignText(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.Struct, reflect.Array, reflect.Slice, reflect.Map:
	default:
		return "", false
	}
	t := v.Type()
	if t.Name() == "" || t.PkgPath() == "" || !v.CanInterface() || r.inDomain(t.PkgPath()) {
		return "", false
	}
	if t.Kind() == reflect.Struct && r.engine.registry.Table(t).Len() > 0 {
		return "", false
	}
	if (t.Kind() == reflect.Slice || t.Kind() == reflect.Map) && v.IsNil() {
		return "", false
	}
	return stringerText(v.Interface())
}

func stringerText(x any) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	switch x := x.(type) {
	case fmt.Stringer:
		return x.String(), true
	case encoding.TextMarshaler:
		text, err := x.MarshalText()
		if err != nil {
			return "", false
		}
		return string(text), true
	}
	return "", false
}

// lookup prefers a path rule declared on the outermost type over the
// nested type's own rule for the field.
func lookup(scope, table *Table, path, name string) (Rule, bool) {
	if scope != table {
		if rule, ok := scope.Rule(path); ok {
			return rule, true
		}
	}
	return table.Rule(name)
}

func writeMasked(b *strings.Builder, v reflect.Value, rule Rule) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			b.WriteString(Null)
			return
		}
		v = v.Elem()
	}
	s, ok := fieldText(v)
	if !ok {
		b.WriteString(Unavailable)
		return
	}
	b.WriteString(Mask(s, rule))
}

func writeNatural(b *strings.Builder, v reflect.Value) {
	s, ok := naturalText(v)
	if !ok {
		b.WriteString(Unavailable)
		return
	}
	b.WriteString(s)
}

// fieldText is the string form masked for a sensitive field.
func fieldText(v reflect.Value) (string, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return Null, true
		}
		v = v.Elem()
	}
	return naturalText(v)
}

// naturalText formats v the way fmt would, falling back to reflect
// accessors for unexported scalars. ok is false when v cannot be read.
func naturalText(v reflect.Value) (s string, ok bool) {
	if !v.IsValid() {
		return Null, true
	}
	if v.CanInterface() {
		defer func() {
			if recover() != nil {
				s, ok = "", false
			}
		}()
		return fmt.Sprint(v.Interface()), true
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), true
	case reflect.Complex64:
		return strconv.FormatComplex(v.Complex(), 'g', -1, 64), true
	case reflect.Complex128:
		return strconv.FormatComplex(v.Complex(), 'g', -1, 128), true
	default:
		return "", false
	}
}

func loggable(v reflect.Value) (any, bool) {
	if !v.CanInterface() {
		return nil, false
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false
	}
	lv, ok := v.Interface().(Loggable)
	if !ok {
		return nil, false
	}
	return lv.LogValue(), true
}

func typeName(t reflect.Type) string {
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

func fallback(value any) (s string) {
	defer func() {
		if recover() != nil {
			s = fmt.Sprintf("%T %s", value, ErrorMarker)
		}
	}()
	return fmt.Sprintf("%v %s", value, ErrorMarker)
}
