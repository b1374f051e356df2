package record

import (
	"strconv"
	"strings"
)

// PathSeparator splits a path expression into segments
const PathSeparator = " -> "

// Path is a parsed path expression such as "PERSONAL INFORMATION -> Name -> First Name :"
// or "Addresses -> [0] -> City :".
type Path []string

// ParsePath splits expr on PathSeparator. The empty expression has no segments.
func ParsePath(expr string) Path {
	if expr == "" {
		return Path{}
	}
	return Path(strings.Split(expr, PathSeparator))
}

// String joins the segments back into an expression
func (p Path) String() string {
	return strings.Join(p, PathSeparator)
}

// Resolve walks root segment by segment. It reports false as soon as a segment cannot be
// applied to the current node: a missing key, a bad or out-of-range index, or a scalar
// with segments left over.
func (p Path) Resolve(root Value) (Value, bool) {
	cursor := root
	for _, seg := range p {
		switch cursor.Kind() {
		case KindArray:
			idx, ok := parseIndex(seg)
			if !ok {
				return Value{}, false
			}
			next, ok := cursor.Index(idx)
			if !ok {
				return Value{}, false
			}
			cursor = next
		case KindObject:
			next, ok := cursor.Field(seg)
			if !ok {
				return Value{}, false
			}
			cursor = next
		default:
			return Value{}, false
		}
	}
	return cursor, true
}

// Extract resolves expr against root and returns def on any miss
func Extract(root Value, expr string, def Value) Value {
	if v, ok := ParsePath(expr).Resolve(root); ok {
		return v
	}
	return def
}

// parseIndex accepts "[n]" or "n" with n a non-negative decimal integer
func parseIndex(seg string) (int, bool) {
	s := seg
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") && len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
