package contentquery

import (
	"fmt"
	"regexp"
)

// Status bits on a content row. A row may carry both, either or neither.
const (
	StatusLatest    = 1
	StatusPublished = 2
)

// Dialect picks the pagination syntax.
type Dialect int

const (
	// DialectMySQL renders "LIMIT offset,count", which SQLite accepts too.
	DialectMySQL Dialect = iota
	// DialectPostgres renders "LIMIT count OFFSET offset".
	DialectPostgres
)

// AttributeSchema names the side table holding per-revision attributes.
type AttributeSchema struct {
	Table    string
	Domain   string
	Owner    string
	Revision string
	Name     string
	Value    string
}

// Schema names the queried table and the columns filters refer to. Empty
// fields fall back to DefaultSchema's.
type Schema struct {
	Table      string
	Alias      string
	Domain     string
	ID         string
	Revision   string
	Parent     string
	Category   string
	Status     string
	Online     string
	Offline    string
	Attributes AttributeSchema
}

var DefaultSchema = Schema{
	Table:    "LS_CONTENT",
	Alias:    "c",
	Domain:   "DOMAIN",
	ID:       "ID",
	Revision: "REVISION",
	Parent:   "PARENT",
	Category: "CATEGORY",
	Status:   "STATUS",
	Online:   "ONLINE",
	Offline:  "OFFLINE",
	Attributes: AttributeSchema{
		Table:    "LS_ATTRIBUTE",
		Domain:   "DOMAIN",
		Owner:    "CONTENT",
		Revision: "REVISION",
		Name:     "NAME",
		Value:    "DATA",
	},
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s Schema) withDefaults() Schema {
	d := DefaultSchema
	a := s.Attributes
	return Schema{
		Table:    or(s.Table, d.Table),
		Alias:    or(s.Alias, d.Alias),
		Domain:   or(s.Domain, d.Domain),
		ID:       or(s.ID, d.ID),
		Revision: or(s.Revision, d.Revision),
		Parent:   or(s.Parent, d.Parent),
		Category: or(s.Category, d.Category),
		Status:   or(s.Status, d.Status),
		Online:   or(s.Online, d.Online),
		Offline:  or(s.Offline, d.Offline),
		Attributes: AttributeSchema{
			Table:    or(a.Table, d.Attributes.Table),
			Domain:   or(a.Domain, d.Attributes.Domain),
			Owner:    or(a.Owner, d.Attributes.Owner),
			Revision: or(a.Revision, d.Attributes.Revision),
			Name:     or(a.Name, d.Attributes.Name),
			Value:    or(a.Value, d.Attributes.Value),
		},
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validIdent guards the names that are spliced into SQL text, since
// identifiers cannot be bound as parameters.
func validIdent(what, name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %s identifier %q", ErrInvalid, what, name)
	}
	return nil
}

func (s Schema) validate() error {
	for _, f := range []struct{ what, name string }{
		{"table", s.Table}, {"alias", s.Alias}, {"domain column", s.Domain},
		{"id column", s.ID}, {"revision column", s.Revision}, {"parent column", s.Parent},
		{"category column", s.Category}, {"status column", s.Status},
		{"online column", s.Online}, {"offline column", s.Offline},
		{"attribute table", s.Attributes.Table}, {"attribute domain column", s.Attributes.Domain},
		{"attribute owner column", s.Attributes.Owner}, {"attribute revision column", s.Attributes.Revision},
		{"attribute name column", s.Attributes.Name}, {"attribute value column", s.Attributes.Value},
	} {
		if err := validIdent(f.what, f.name); err != nil {
			return err
		}
	}
	return nil
}
