// Package sqlq describes statements handed to a connection: either a named
// template from a Catalog or fully rendered SQL text, plus bind values.
package sqlq

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cederberg/liquidsite-sub003/internal/data/record"
)

// Query is one statement to execute. Exactly one of Name and Text is set.
// Values bind either positionally (Args, '?') or by name (Params, '@NAME').
type Query struct {
	Name   string
	Text   string
	Args   []any
	Params map[string]any
	// Label describes the operation for logs and errors, e.g. "reading content".
	Label string
}

// Template references a catalog template by name.
func Template(name, label string) Query {
	return Query{Name: name, Label: label}
}

// Raw wraps already rendered SQL.
func Raw(text, label string, args ...any) Query {
	return Query{Text: text, Label: label, Args: args}
}

// Bind appends positional values.
func (q Query) Bind(args ...any) Query {
	out := make([]any, 0, len(q.Args)+len(args))
	out = append(out, q.Args...)
	q.Args = append(out, args...)
	return q
}

// BindNamed sets one named value.
func (q Query) BindNamed(name string, v any) Query {
	params := make(map[string]any, len(q.Params)+1)
	for k, val := range q.Params {
		params[k] = val
	}
	params[name] = v
	q.Params = params
	return q
}

// BindRecord binds every column of r by its column name.
func (q Query) BindRecord(r *record.Record) Query {
	for name, v := range r.Named() {
		q = q.BindNamed(name, v)
	}
	return q
}

// Describe names the query for diagnostics.
func (q Query) Describe() string {
	switch {
	case q.Label != "":
		return q.Label
	case q.Name != "":
		return q.Name
	default:
		return "executing statement"
	}
}

// Quote renders s as a single-quoted SQL literal, doubling embedded quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// DateLayout is the literal format dates are inlined with.
const DateLayout = "2006-01-02 15:04:05"

// Literal renders a bind value as SQL literal text.
func Literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return Quote(t)
	case []byte:
		return Quote(string(t))
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		return Quote(t.UTC().Format(DateLayout))
	default:
		return Quote(fmt.Sprint(v))
	}
}

// Inline substitutes every '?' placeholder outside quoted literals with the
// literal rendering of the matching argument. Surplus placeholders are left
// untouched.
func Inline(text string, args []any) string {
	var b strings.Builder
	b.Grow(len(text) + 16*len(args))
	next := 0
	scan(text, func(ch byte, quoted bool) {
		if ch == '?' && !quoted && next < len(args) {
			b.WriteString(Literal(args[next]))
			next++
			return
		}
		b.WriteByte(ch)
	})
	return b.String()
}

// scan walks text byte by byte, reporting whether each byte sits inside a
// single-quoted literal. A doubled quote inside a literal stays quoted.
func scan(text string, fn func(ch byte, quoted bool)) {
	quoted := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '\'' {
			fn(ch, true)
			if quoted && i+1 < len(text) && text[i+1] == '\'' {
				i++
				fn(text[i], true)
				continue
			}
			quoted = !quoted
			continue
		}
		fn(ch, quoted)
	}
}

// Placeholders counts positional placeholders outside quoted literals.
func Placeholders(text string) int {
	n := 0
	scan(text, func(ch byte, quoted bool) {
		if ch == '?' && !quoted {
			n++
		}
	})
	return n
}

// NamedPlaceholders lists the distinct @NAME placeholders outside quoted
// literals in order of first appearance.
func NamedPlaceholders(text string) []string {
	var (
		out  []string
		seen = map[string]bool{}
		name strings.Builder
		in   bool
	)
	flush := func() {
		if in && name.Len() > 0 && !seen[name.String()] {
			seen[name.String()] = true
			out = append(out, name.String())
		}
		in = false
		name.Reset()
	}
	scan(text, func(ch byte, quoted bool) {
		if in && !quoted && isIdent(ch, name.Len() == 0) {
			name.WriteByte(ch)
			return
		}
		flush()
		if ch == '@' && !quoted {
			in = true
		}
	})
	flush()
	return out
}

func isIdent(ch byte, first bool) bool {
	switch {
	case ch == '_', ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		return true
	case ch >= '0' && ch <= '9':
		return !first
	default:
		return false
	}
}
