// Package contentquery builds count and select statements over content
// rows: parent, category, status and online filters, filters and sorting
// on joined attribute values, and pagination.
package contentquery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
)

// ErrInvalid marks every error reported while rendering a statement.
var ErrInvalid = errors.New("contentquery: invalid query")

const (
	DefaultOffset = 0
	DefaultCount  = 100
)

// Statement is rendered SQL with '?' placeholders and their values.
type Statement struct {
	SQL  string
	Args []any
}

// String renders the statement with every value inlined as an escaped
// literal.
func (s Statement) String() string { return sqlq.Inline(s.SQL, s.Args) }

// Query adapts the statement for the gateway.
func (s Statement) Query(label string) sqlq.Query {
	return sqlq.Raw(s.SQL, label, s.Args...)
}

type Option func(*Builder)

func WithSchema(s Schema) Option { return func(b *Builder) { b.schema = s.withDefaults() } }

func WithDialect(d Dialect) Option { return func(b *Builder) { b.dialect = d } }

// WithClock replaces time.Now for the online window.
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

type attrJoin struct {
	name   string
	values []string
}

type sortKey struct {
	name      string
	join      *attrJoin
	ascending bool
}

// Builder accumulates query state for one domain. It is not safe for
// concurrent use.
type Builder struct {
	schema  Schema
	dialect Dialect
	now     func() time.Time

	domain   string
	parents  []int
	category int
	status   int
	online   bool
	onlineAt time.Time
	joins    []*attrJoin
	sorts    []sortKey
	offset   int
	count    int
	errs     []error
}

func New(domain string, opts ...Option) *Builder {
	b := &Builder{
		schema: DefaultSchema,
		now:    time.Now,
		domain: domain,
		offset: DefaultOffset,
		count:  DefaultCount,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Domain() string { return b.domain }

// RequireParent accepts rows below id. Repeated calls widen the accepted
// set; without calls the parent is unconstrained.
func (b *Builder) RequireParent(id int) *Builder {
	for _, p := range b.parents {
		if p == id {
			return b
		}
	}
	b.parents = append(b.parents, id)
	return b
}

// RequireCategory filters on one category. Zero removes the filter.
func (b *Builder) RequireCategory(category int) *Builder {
	b.category = category
	return b
}

// RequirePublished selects published revisions when true and latest
// revisions when false. Without a call revisions are not filtered.
func (b *Builder) RequirePublished(published bool) *Builder {
	if published {
		b.status = StatusPublished
	} else {
		b.status = StatusLatest
	}
	return b
}

// RequireOnline restricts rows to those whose online window contains the
// moment of this call. An unset offline date never expires.
func (b *Builder) RequireOnline(online bool) *Builder {
	b.online = online
	if online {
		b.onlineAt = b.now().UTC().Truncate(time.Second)
	}
	return b
}

// RequireAttributeValue accepts rows whose attribute name holds value.
// Values for one name are alternatives; different names must all match.
func (b *Builder) RequireAttributeValue(name, value string) *Builder {
	j := b.join(name)
	for _, v := range j.values {
		if v == value {
			return b
		}
	}
	j.values = append(j.values, value)
	return b
}

// SortByColumn appends a sort on a native column. Earlier keys take
// priority.
func (b *Builder) SortByColumn(column string, ascending bool) *Builder {
	if err := validIdent("sort column", column); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.sorts = append(b.sorts, sortKey{name: column, ascending: ascending})
	return b
}

// SortByAttributeValue appends a sort on an attribute value, sharing the
// join with any filter on the same attribute.
func (b *Builder) SortByAttributeValue(name string, ascending bool) *Builder {
	b.sorts = append(b.sorts, sortKey{name: name, join: b.join(name), ascending: ascending})
	return b
}

// Limit sets the pagination window.
func (b *Builder) Limit(offset, count int) *Builder {
	if offset < 0 || count < 0 {
		b.errs = append(b.errs, fmt.Errorf("%w: limit %d,%d", ErrInvalid, offset, count))
		return b
	}
	b.offset, b.count = offset, count
	return b
}

// Joins lists the joined attribute names in registration order.
func (b *Builder) Joins() []string {
	out := make([]string, len(b.joins))
	for i, j := range b.joins {
		out[i] = j.name
	}
	return out
}

func (b *Builder) join(name string) *attrJoin {
	for _, j := range b.joins {
		if j.name == name {
			return j
		}
	}
	j := &attrJoin{name: name}
	b.joins = append(b.joins, j)
	return j
}

func (b *Builder) alias(j *attrJoin) string {
	for i, other := range b.joins {
		if other == j {
			return fmt.Sprintf("a%d", i)
		}
	}
	return ""
}

// RenderCount renders "SELECT COUNT(*)" over the filtered rows. Attribute
// joins only appear when a filter needs them; no ordering or paging.
func (b *Builder) RenderCount() (Statement, error) {
	if err := b.check(); err != nil {
		return Statement{}, err
	}
	w := &writer{}
	w.text("SELECT COUNT(*) FROM ").text(b.schema.Table).text(" AS ").text(b.schema.Alias)
	for _, j := range b.joins {
		if len(j.values) > 0 {
			b.writeJoin(w, j)
		}
	}
	b.writeWhere(w)
	return w.statement(), nil
}

// RenderSelect renders the paged select of every native column.
func (b *Builder) RenderSelect() (Statement, error) {
	if err := b.check(); err != nil {
		return Statement{}, err
	}
	s := b.schema
	w := &writer{}
	w.text("SELECT ").text(s.Alias).text(".* FROM ").text(s.Table).text(" AS ").text(s.Alias)
	for _, j := range b.joins {
		b.writeJoin(w, j)
	}
	b.writeWhere(w)
	for i, key := range b.sorts {
		if i == 0 {
			w.text(" ORDER BY ")
		} else {
			w.text(", ")
		}
		if key.join != nil {
			w.text(b.alias(key.join)).text(".").text(s.Attributes.Value)
		} else {
			w.text(s.Alias).text(".").text(key.name)
		}
		if !key.ascending {
			w.text(" DESC")
		}
	}
	switch b.dialect {
	case DialectPostgres:
		w.text(fmt.Sprintf(" LIMIT %d OFFSET %d", b.count, b.offset))
	default:
		w.text(fmt.Sprintf(" LIMIT %d,%d", b.offset, b.count))
	}
	return w.statement(), nil
}

func (b *Builder) check() error {
	errs := append([]error(nil), b.errs...)
	if strings.TrimSpace(b.domain) == "" {
		errs = append(errs, fmt.Errorf("%w: domain is required", ErrInvalid))
	}
	if err := b.schema.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (b *Builder) writeJoin(w *writer, j *attrJoin) {
	s, a, alias := b.schema, b.schema.Attributes, b.alias(j)
	w.text(" LEFT JOIN ").text(a.Table).text(" AS ").text(alias).text(" ON ")
	w.col(alias, a.Domain).text("=").col(s.Alias, s.Domain)
	w.text(" AND ").col(alias, a.Owner).text("=").col(s.Alias, s.ID)
	w.text(" AND ").col(alias, a.Revision).text("=").col(s.Alias, s.Revision)
	w.text(" AND ").col(alias, a.Name).text("=").arg(j.name)
}

func (b *Builder) writeWhere(w *writer) {
	s := b.schema
	w.text(" WHERE ").col(s.Alias, s.Domain).text("=").arg(b.domain)
	if b.status != 0 {
		w.text(fmt.Sprintf(" AND (%s.%s & %d)>0", s.Alias, s.Status, b.status))
	}
	if len(b.parents) > 0 {
		w.text(" AND ").col(s.Alias, s.Parent)
		w.in(toAny(b.parents))
	}
	if b.category != 0 {
		w.text(" AND ").col(s.Alias, s.Category).text("=").arg(b.category)
	}
	if b.online {
		w.text(" AND ").col(s.Alias, s.Online).text("<=").arg(b.onlineAt)
		w.text(" AND (").col(s.Alias, s.Offline).text(" IS NULL OR ")
		w.col(s.Alias, s.Offline).text(">").arg(b.onlineAt).text(")")
	}
	for _, j := range b.joins {
		if len(j.values) == 0 {
			continue
		}
		w.text(" AND ").col(b.alias(j), s.Attributes.Value)
		w.in(toAny(j.values))
	}
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

type writer struct {
	sb   strings.Builder
	args []any
}

func (w *writer) text(s string) *writer {
	w.sb.WriteString(s)
	return w
}

func (w *writer) col(alias, name string) *writer {
	return w.text(alias).text(".").text(name)
}

func (w *writer) arg(v any) *writer {
	w.args = append(w.args, v)
	return w.text("?")
}

// in renders "=?" for one value and " IN (?,?,...)" for several.
func (w *writer) in(values []any) *writer {
	if len(values) == 1 {
		return w.text("=").arg(values[0])
	}
	w.text(" IN (")
	for i, v := range values {
		if i > 0 {
			w.text(",")
		}
		w.arg(v)
	}
	return w.text(")")
}

func (w *writer) statement() Statement {
	return Statement{SQL: w.sb.String(), Args: w.args}
}
