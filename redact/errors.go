package redact

import "errors"

// Placeholders written into rendered output.
const (
	// Null is the rendering of nil pointers, interfaces, maps and slices.
	Null = "null"

	// CyclicPlaceholder replaces a value already on the traversal path.
	CyclicPlaceholder = "<cyclic-reference>"

	// Unavailable replaces a single field that could not be read.
	Unavailable = "<unavailable>"

	// ErrorMarker tags the fallback text of a value that failed to render.
	ErrorMarker = "(error masking sensitive data)"
)

var (
	// ErrInvalidTag indicates a malformed `log` struct tag.
	ErrInvalidTag = errors.New("redact: invalid tag")

	// ErrInvalidRule indicates a malformed rule in a rule file.
	ErrInvalidRule = errors.New("redact: invalid rule")
)
