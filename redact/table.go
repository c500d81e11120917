package redact

import (
	"reflect"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Table maps field paths of one struct type to their Rule.
//
// Paths are field names ("Email") or dotted paths into nested struct
// members ("Billing.CardNumber"). A Table is immutable once built.
type Table struct {
	typ   reflect.Type
	rules map[string]Rule
}

// NewTable builds a table for t. Pointer types are dereferenced.
func NewTable(t reflect.Type, rules map[string]Rule) *Table {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	copied := make(map[string]Rule, len(rules))
	for path, rule := range rules {
		copied[path] = rule.normalize()
	}
	return &Table{typ: t, rules: copied}
}

// TableOf builds a table for T.
func TableOf[T any](rules map[string]Rule) *Table {
	return NewTable(reflect.TypeFor[T](), rules)
}

// Type returns the struct type the table describes.
func (t *Table) Type() reflect.Type {
	return t.typ
}

// Rule returns the rule for path, if any.
func (t *Table) Rule(path string) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	r, ok := t.rules[path]
	return r, ok
}

// Len returns the number of rules in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Paths returns the table's field paths in sorted order.
func (t *Table) Paths() []string {
	if t == nil {
		return nil
	}
	paths := make([]string, 0, len(t.rules))
	for p := range t.rules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Registry caches one Table per struct type.
//
// Tables are derived on first use from struct tags merged with any rule set
// supplied through WithRuleSet (rule set entries win). Tables registered
// explicitly replace derived ones. Safe for concurrent use.
type Registry struct {
	tables  sync.Map // reflect.Type -> *Table
	group   singleflight.Group
	ruleSet RuleSet
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRuleSet merges rules loaded from a rule file into derived tables.
func WithRuleSet(set RuleSet) RegistryOption {
	return func(r *Registry) {
		if r.ruleSet == nil {
			r.ruleSet = make(RuleSet, len(set))
		}
		for typeName, fields := range set {
			merged := r.ruleSet[typeName]
			if merged == nil {
				merged = make(map[string]Rule, len(fields))
			}
			for path, rule := range fields {
				merged[path] = rule
			}
			r.ruleSet[typeName] = merged
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs explicit tables, replacing any cached table for the
// same type.
func (r *Registry) Register(tables ...*Table) {
	for _, t := range tables {
		if t == nil || t.typ == nil {
			continue
		}
		r.tables.Store(t.typ, t)
	}
}

// Table returns the table for t, deriving and caching it on first use.
// Concurrent first lookups of the same type build the table once.
func (r *Registry) Table(t reflect.Type) *Table {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := r.tables.Load(t); ok {
		return cached.(*Table)
	}

	v, _, _ := r.group.Do(typeKey(t), func() (any, error) {
		if cached, ok := r.tables.Load(t); ok {
			return cached, nil
		}
		actual, _ := r.tables.LoadOrStore(t, r.derive(t))
		return actual, nil
	})

	// Distinct unnamed types can share a key; never hand back another type's table.
	if table := v.(*Table); table.typ == t {
		return table
	}
	actual, _ := r.tables.LoadOrStore(t, r.derive(t))
	return actual.(*Table)
}

// Has reports whether a table is cached for t.
func (r *Registry) Has(t reflect.Type) bool {
	_, ok := r.tables.Load(t)
	return ok
}

func (r *Registry) derive(t reflect.Type) *Table {
	rules := make(map[string]Rule)
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag, ok := f.Tag.Lookup(TagName)
			if !ok {
				continue
			}
			// A malformed tag still marks the field sensitive; the partial
			// rule masks at least as much as the author intended.
			rule, sensitive, _ := ParseTag(tag)
			if sensitive {
				rules[f.Name] = rule
			}
		}
	}
	for path, rule := range r.ruleSet[QualifiedName(t)] {
		rules[path] = rule
	}
	return NewTable(t, rules)
}

// QualifiedName returns the import-path qualified name used as the key in
// rule files, e.g. "example.com/app/users.User".
func QualifiedName(t reflect.Type) string {
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

func typeKey(t reflect.Type) string {
	return t.PkgPath() + "|" + t.String()
}
