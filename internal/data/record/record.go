package record

import "time"

// Record is one row of an entity. Records come only from Entity.New or
// Entity.Hydrate, so every declared column always holds a value.
type Record struct {
	entity *Entity
	values map[string]any
}

func (r *Record) Entity() *Entity { return r.entity }

// Get returns the typed value of c. Columns foreign to the record's entity
// read as c's default.
func Get[T Value](r *Record, c *Column[T]) T {
	if v, ok := r.values[c.name].(T); ok && r.entity.Has(c) {
		return v
	}
	return c.def
}

// Set stores v for c. Columns foreign to the record's entity are ignored.
func Set[T Value](r *Record, c *Column[T], v T) {
	if r.entity.Has(c) {
		r.values[c.name] = v
	}
}

// The kind-erased accessors below are lenient: a column of another kind or
// another entity reads as the accessor's zero value rather than failing.

func (r *Record) GetBoolean(c Descriptor) bool {
	v, _ := r.raw(c).(bool)
	return v
}

func (r *Record) GetDate(c Descriptor) time.Time {
	v, _ := r.raw(c).(time.Time)
	return v
}

func (r *Record) GetInt(c Descriptor) int {
	v, _ := r.raw(c).(int)
	return v
}

func (r *Record) GetString(c Descriptor) string {
	v, _ := r.raw(c).(string)
	return v
}

func (r *Record) SetBoolean(c Descriptor, v bool) { r.set(c, KindBoolean, v) }
func (r *Record) SetDate(c Descriptor, v time.Time) { r.set(c, KindDate, v) }
func (r *Record) SetInt(c Descriptor, v int) { r.set(c, KindInteger, v) }
func (r *Record) SetString(c Descriptor, v string) { r.set(c, KindString, v) }

func (r *Record) raw(c Descriptor) any {
	if !r.entity.Has(c) {
		return nil
	}
	return r.values[c.Name()]
}

func (r *Record) set(c Descriptor, kind Kind, v any) {
	if c.Kind() != kind || !r.entity.Has(c) {
		return
	}
	r.values[c.Name()] = v
}

// Value returns the stored value of c, or nil for a foreign column.
func (r *Record) Value(c Descriptor) any { return r.raw(c) }

// Named maps every column name to its value, for @NAME style binding.
func (r *Record) Named() map[string]any {
	out := make(map[string]any, len(r.entity.columns))
	for _, c := range r.entity.columns {
		out[c.Name()] = r.values[c.Name()]
	}
	return out
}

// Args returns the values in declaration order. Prefer Named: positional
// binding silently breaks when a template orders its placeholders
// differently from the entity.
func (r *Record) Args() []any {
	out := make([]any, len(r.entity.columns))
	for i, c := range r.entity.columns {
		out[i] = r.values[c.Name()]
	}
	return out
}

// Clone returns an independent copy.
func (r *Record) Clone() *Record {
	values := make(map[string]any, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	return &Record{entity: r.entity, values: values}
}
