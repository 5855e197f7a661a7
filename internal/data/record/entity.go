package record

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cederberg/liquidsite-sub003/internal/data/rowset"
)

// Entity is the ordered column set of one table. Column order is the
// declaration order and is what Record.Args binds positionally.
type Entity struct {
	name    string
	columns []Descriptor
	byName  map[string]Descriptor
}

// NewEntity binds the columns to a new entity. It panics when a column is
// already bound elsewhere or a name repeats; both are declaration bugs.
func NewEntity(name string, columns ...Descriptor) *Entity {
	e := &Entity{
		name:    name,
		columns: make([]Descriptor, 0, len(columns)),
		byName:  make(map[string]Descriptor, len(columns)),
	}
	for _, c := range columns {
		key := strings.ToUpper(c.Name())
		if _, dup := e.byName[key]; dup {
			panic(fmt.Sprintf("record: entity %s declares column %s twice", name, c.Name()))
		}
		c.bind(name)
		e.columns = append(e.columns, c)
		e.byName[key] = c
	}
	return e
}

func (e *Entity) Name() string { return e.name }

// Columns returns the descriptors in declaration order.
func (e *Entity) Columns() []Descriptor {
	out := make([]Descriptor, len(e.columns))
	copy(out, e.columns)
	return out
}

// Column looks a descriptor up by case-insensitive name.
func (e *Entity) Column(name string) (Descriptor, bool) {
	c, ok := e.byName[strings.ToUpper(name)]
	return c, ok
}

// Names returns the column names in declaration order.
func (e *Entity) Names() []string {
	out := make([]string, len(e.columns))
	for i, c := range e.columns {
		out[i] = c.Name()
	}
	return out
}

// Has reports whether c is one of this entity's own descriptors.
func (e *Entity) Has(c Descriptor) bool {
	if c == nil {
		return false
	}
	own, ok := e.byName[strings.ToUpper(c.Name())]
	return ok && own == c
}

// New returns a record holding every column's default.
func (e *Entity) New() *Record {
	r := &Record{entity: e, values: make(map[string]any, len(e.columns))}
	for _, c := range e.columns {
		c.applyDefault(r)
	}
	return r
}

// Hydrate reads every column from row into a fresh record. The first
// failing column aborts the whole record.
func (e *Entity) Hydrate(row rowset.Row) (*Record, error) {
	r := e.New()
	for _, c := range e.columns {
		if err := c.hydrate(row, r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Registry tracks entities by name. Definitions run at most once per name.
type Registry struct {
	mu       sync.Mutex
	entities map[string]*Entity
}

func NewRegistry() *Registry {
	return &Registry{entities: map[string]*Entity{}}
}

// DefaultRegistry is the registry the domain tables register into.
var DefaultRegistry = NewRegistry()

// ForType returns the entity registered under name, running define to
// create it when absent. Concurrent first callers observe the same entity.
func (reg *Registry) ForType(name string, define func() *Entity) *Entity {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if e, ok := reg.entities[name]; ok {
		return e
	}
	e := define()
	reg.entities[name] = e
	return e
}

// Register adds e, returning the entity already registered under its name
// when there is one.
func (reg *Registry) Register(e *Entity) *Entity {
	return reg.ForType(e.Name(), func() *Entity { return e })
}

func (reg *Registry) Lookup(name string) (*Entity, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	e, ok := reg.entities[name]
	return e, ok
}

// Names lists registered entity names in no particular order.
func (reg *Registry) Names() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]string, 0, len(reg.entities))
	for name := range reg.entities {
		out = append(out, name)
	}
	return out
}
