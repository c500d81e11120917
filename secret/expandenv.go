package secret

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ExpandEnvStrict expands s against the process environment.
func ExpandEnvStrict(s string) (string, error) {
	return Expand(s, os.LookupEnv)
}

// Expand substitutes variables in s using lookup.
//
//   - ${VAR} must be set; every unset one is named, sorted, in an error
//     wrapping ErrMissingEnv.
//   - $VAR expands to "" when unset.
//   - $$ is a literal $.
//
// Anything else after a $ is copied through.
func Expand(s string, lookup func(string) (string, bool)) (string, error) {
	var (
		b       strings.Builder
		missing []string
	)
	for {
		i := strings.IndexByte(s, '$')
		if i < 0 || i == len(s)-1 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		s = s[i+1:]

		switch {
		case s[0] == '$':
			b.WriteByte('$')
			s = s[1:]
		case s[0] == '{':
			end := strings.IndexByte(s, '}')
			if end < 0 || !isVarName(s[1:end]) {
				b.WriteByte('$')
				continue
			}
			name := s[1:end]
			s = s[end+1:]
			v, ok := lookup(name)
			if !ok && !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			b.WriteString(v)
		default:
			n := varNameLen(s)
			if n == 0 {
				b.WriteByte('$')
				continue
			}
			v, _ := lookup(s[:n])
			b.WriteString(v)
			s = s[n:]
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return b.String(), nil
}

// varNameLen is the length of the variable name at the start of s.
func varNameLen(s string) int {
	for i := range len(s) {
		c := s[i]
		letter := c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
		if !letter && (i == 0 || c < '0' || c > '9') {
			return i
		}
	}
	return len(s)
}

func isVarName(s string) bool {
	return s != "" && varNameLen(s) == len(s)
}
