package redact

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultMaskChar is used when a Rule leaves MaskChar unset.
const DefaultMaskChar = '*'

// TagName is the struct tag key read when deriving rules from a type.
const TagName = "log"

// Rule describes how much of a field's string form stays visible.
type Rule struct {
	// MaskChar replaces hidden characters. Zero means DefaultMaskChar.
	MaskChar rune

	// ShowFirst is the number of leading characters left visible.
	ShowFirst int

	// ShowLast is the number of trailing characters left visible.
	ShowLast int
}

// normalize fills defaults and drops negative counts.
func (r Rule) normalize() Rule {
	if r.MaskChar == 0 {
		r.MaskChar = DefaultMaskChar
	}
	r.ShowFirst = max(r.ShowFirst, 0)
	r.ShowLast = max(r.ShowLast, 0)
	return r
}

// Apply masks value according to the rule. See Mask.
func (r Rule) Apply(value string) string {
	return Mask(value, r)
}

// Mask hides the middle of value, keeping rule.ShowFirst leading and
// rule.ShowLast trailing characters. Lengths count runes, not bytes.
//
// The visible spans never overlap: ShowFirst is clamped to the value length
// first and ShowLast gets whatever remains. The result always has the same
// rune count as value. An empty value masks to an empty string.
func Mask(value string, rule Rule) string {
	if value == "" {
		return ""
	}
	rule = rule.normalize()

	runes := []rune(value)
	n := len(runes)
	first := min(rule.ShowFirst, n)
	last := min(rule.ShowLast, n-first)
	hidden := n - first - last

	var b strings.Builder
	b.Grow(len(value) + hidden*utf8.RuneLen(rule.MaskChar))
	b.WriteString(string(runes[:first]))
	for range hidden {
		b.WriteRune(rule.MaskChar)
	}
	b.WriteString(string(runes[n-last:]))
	return b.String()
}

// ParseTag parses a `log` struct tag value.
//
// The first element must be "sensitive" for the field to carry a rule.
// Options follow as comma separated key=value pairs: first, last and char.
// ok is false when the tag does not mark the field sensitive.
func ParseTag(tag string) (rule Rule, ok bool, err error) {
	parts := strings.Split(tag, ",")
	if strings.TrimSpace(parts[0]) != "sensitive" {
		return Rule{}, false, nil
	}

	rule = Rule{MaskChar: DefaultMaskChar}
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, found := strings.Cut(opt, "=")
		if !found {
			return rule, true, fmt.Errorf("%w: option %q has no value", ErrInvalidTag, opt)
		}
		switch key {
		case "first", "last":
			n, convErr := strconv.Atoi(val)
			if convErr != nil || n < 0 {
				return rule, true, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrInvalidTag, key, val)
			}
			if key == "first" {
				rule.ShowFirst = n
			} else {
				rule.ShowLast = n
			}
		case "char":
			if utf8.RuneCountInString(val) != 1 {
				return rule, true, fmt.Errorf("%w: char=%q must be a single character", ErrInvalidTag, val)
			}
			rule.MaskChar, _ = utf8.DecodeRuneInString(val)
		default:
			return rule, true, fmt.Errorf("%w: unknown option %q", ErrInvalidTag, key)
		}
	}
	return rule, true, nil
}
