package executor

import (
	"strconv"
	"strings"
)

// Path locates a value in the response: field names and list indices.
type Path []PathElement

// PathElement is a string response name or an int list index.
type PathElement any

// with returns a copy of p extended by elem.
func (p Path) with(elem PathElement) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

// key renders p as a map key. Response names never start with a digit, so
// names and indices cannot collide.
func (p Path) key() string {
	var b strings.Builder
	for i, elem := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		switch e := elem.(type) {
		case string:
			b.WriteString(e)
		case int:
			b.WriteString(strconv.Itoa(e))
		}
	}
	return b.String()
}

// String renders p as "a.b[0].c".
func (p Path) String() string {
	var b strings.Builder
	for _, elem := range p {
		switch e := elem.(type) {
		case string:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(e)
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(e))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// setAt writes v at path inside data. Every container on the way must
// already exist; a missing or nulled one drops the write.
func setAt(data map[string]any, path Path, v any) {
	if len(path) == 0 {
		return
	}
	var cur any = data
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return
			}
			cur = m[e]
		case int:
			s, ok := cur.([]any)
			if !ok || e >= len(s) {
				return
			}
			cur = s[e]
		}
	}
	switch e := path[len(path)-1].(type) {
	case string:
		if m, ok := cur.(map[string]any); ok {
			m[e] = v
		}
	case int:
		if s, ok := cur.([]any); ok && e < len(s) {
			s[e] = v
		}
	}
}
