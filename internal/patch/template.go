package patch

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// placeholder matches %{field} and %{field:filter}.
var placeholder = regexp.MustCompile(`%\{([a-z_]+)(?::([a-z]+))?\}`)

// Fields maps placeholder names to values.
type Fields map[string]string

// expand replaces every placeholder in tmpl using escape on each value.
// An unknown field or filter is an error.
func expand(tmpl string, fields Fields, escape func(string) string) (string, error) {
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := placeholder.FindStringSubmatch(m)
		value, ok := fields[sub[1]]
		if !ok {
			if firstErr == nil {
				firstErr = errors.Errorf("unknown field %q in template", sub[1])
			}
			return m
		}
		switch sub[2] {
		case "":
		case "ruby":
			value = RubyString(value)
		default:
			if firstErr == nil {
				firstErr = errors.Errorf("unknown filter %q in template", sub[2])
			}
			return m
		}
		return escape(value)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// Expand fills placeholders in tmpl with literal field values.
func Expand(tmpl string, fields Fields) (string, error) {
	return expand(tmpl, fields, func(s string) string { return s })
}

// escapeDollar makes a value safe inside a regexp replacement template.
func escapeDollar(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// RubyString renders s as a double-quoted Ruby string literal. Backslashes,
// quotes and # are escaped so the value can neither terminate the literal
// nor start an interpolation.
func RubyString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '#':
			b.WriteString(`\#`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
