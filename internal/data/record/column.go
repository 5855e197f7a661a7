// Package record maps typed, named, defaulted columns to rows without
// reflection. An Entity is an ordered, immutable set of column descriptors
// declared once per table; a Record is one row's values keyed by those
// descriptors.
package record

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cederberg/liquidsite-sub003/internal/data/rowset"
)

// Kind is the declared value kind of a column.
type Kind int

const (
	KindBoolean Kind = iota + 1
	KindDate
	KindInteger
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the set of Go types a column can hold.
type Value interface {
	bool | time.Time | int | string
}

// Descriptor is the kind-erased view of a Column, used wherever columns
// of different kinds sit in one list.
type Descriptor interface {
	Entity() string
	Name() string
	Kind() Kind
	Default() any

	bind(entity string)
	applyDefault(r *Record)
	hydrate(row rowset.Row, r *Record) error
}

// Column describes one named column of kind T with a default value.
type Column[T Value] struct {
	name   string
	kind   Kind
	def    T
	entity atomic.Pointer[string]
	read   func(rowset.Row, string) (T, error)
}

func Boolean(name string, def bool) *Column[bool] {
	return &Column[bool]{name: name, kind: KindBoolean, def: def, read: rowset.Row.Boolean}
}

func Date(name string, def time.Time) *Column[time.Time] {
	return &Column[time.Time]{name: name, kind: KindDate, def: def, read: rowset.Row.Date}
}

func Int(name string, def int) *Column[int] {
	return &Column[int]{name: name, kind: KindInteger, def: def, read: rowset.Row.Int}
}

func String(name string, def string) *Column[string] {
	return &Column[string]{name: name, kind: KindString, def: def, read: rowset.Row.String}
}

// Entity returns the name of the entity the column was bound to, or ""
// before NewEntity has claimed it.
func (c *Column[T]) Entity() string {
	if p := c.entity.Load(); p != nil {
		return *p
	}
	return ""
}

func (c *Column[T]) Name() string { return c.name }
func (c *Column[T]) Kind() Kind { return c.kind }
func (c *Column[T]) Default() any { return c.def }

// DefaultValue is the typed default.
func (c *Column[T]) DefaultValue() T { return c.def }

func (c *Column[T]) String() string {
	if e := c.Entity(); e != "" {
		return e + "." + c.name
	}
	return c.name
}

func (c *Column[T]) bind(entity string) {
	if !c.entity.CompareAndSwap(nil, &entity) {
		panic(fmt.Sprintf("record: column %s already bound to entity %s", c.name, c.Entity()))
	}
}

func (c *Column[T]) applyDefault(r *Record) {
	r.values[c.name] = c.def
}

func (c *Column[T]) hydrate(row rowset.Row, r *Record) error {
	v, err := c.read(row, c.name)
	if err != nil {
		return &DataFormatError{Entity: c.Entity(), Column: c.name, Kind: c.kind, Err: err}
	}
	r.values[c.name] = v
	return nil
}

// DataFormatError reports a row value that could not be read as the
// column's declared kind.
type DataFormatError struct {
	Entity string
	Column string
	Kind   Kind
	Err    error
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("%s.%s (%s): %v", e.Entity, e.Column, e.Kind, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }
