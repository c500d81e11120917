// Package redact renders arbitrary values as redaction-aware text for logs.
//
// Sensitivity is declared per field, never per type: a Rule attached to a
// field path masks that field's string form, while the same value reached
// through an unannotated field prints unchanged.
//
// Rules are declared once per struct type and cached for the process lifetime
// in a Registry. A Table can be built three ways:
//
//   - explicitly, with NewTable or TableOf
//   - from struct tags: `log:"sensitive,first=3,last=2,char=#"`
//   - from a YAML rule file, with LoadRules and WithRuleSet
//
// Engine.Render walks pointers, slices, arrays, maps and structs. Values that
// are already on the active traversal path render as CyclicPlaceholder, so
// self-referential graphs terminate. Render never panics; a field that cannot
// be read renders as Unavailable and a value that cannot be rendered at all
// falls back to its fmt form tagged with ErrorMarker.
package redact
