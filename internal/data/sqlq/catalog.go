package sqlq

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownTemplate is returned when a query names a template the
	// catalog does not hold.
	ErrUnknownTemplate = errors.New("unknown sql template")
	// ErrBinding is returned when bind values do not match the statement's
	// placeholders.
	ErrBinding = errors.New("sql binding mismatch")
)

// Catalog holds SQL templates keyed by name, e.g. "content.select_latest".
type Catalog struct {
	templates map[string]string
}

type catalogFile struct {
	Templates map[string]string `yaml:"templates"`
}

// ParseCatalog reads a YAML document with a top-level "templates" mapping.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sql catalog: %w", err)
	}
	c := NewCatalog()
	for name, text := range f.Templates {
		if err := c.Add(name, text); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read sql catalog: %w", err)
	}
	return ParseCatalog(data)
}

func NewCatalog() *Catalog {
	return &Catalog{templates: map[string]string{}}
}

// Add registers a template. Names are unique across a catalog.
func (c *Catalog) Add(name, text string) error {
	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)
	switch {
	case name == "":
		return fmt.Errorf("sql catalog: empty template name")
	case text == "":
		return fmt.Errorf("sql catalog: template %q is empty", name)
	}
	if _, dup := c.templates[name]; dup {
		return fmt.Errorf("sql catalog: duplicate template %q", name)
	}
	c.templates[name] = text
	return nil
}

// Merge adds every template of other.
func (c *Catalog) Merge(other *Catalog) error {
	for _, name := range other.Names() {
		if err := c.Add(name, other.templates[name]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) Text(name string) (string, bool) {
	text, ok := c.templates[name]
	return text, ok
}

// Names lists template names, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.templates))
	for name := range c.templates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// WithPrefix lists sorted template names starting with prefix.
func (c *Catalog) WithPrefix(prefix string) []string {
	var out []string
	for _, name := range c.Names() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// Resolve turns q into SQL text and driver arguments. Named params are
// handed over as a single map argument, the form gorm expands @NAME from.
// Every named placeholder must have a value and the positional argument
// count must match the '?' count.
func (c *Catalog) Resolve(q Query) (string, []any, error) {
	text := q.Text
	if q.Name != "" {
		var ok bool
		if c == nil {
			return "", nil, fmt.Errorf("%w: %s (no catalog)", ErrUnknownTemplate, q.Name)
		}
		if text, ok = c.templates[q.Name]; !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, q.Name)
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", nil, fmt.Errorf("%w: empty statement for %s", ErrBinding, q.Describe())
	}
	if len(q.Params) > 0 && len(q.Args) > 0 {
		return "", nil, fmt.Errorf("%w: %s mixes named and positional values", ErrBinding, q.Describe())
	}

	if len(q.Params) > 0 {
		var missing []string
		for _, name := range NamedPlaceholders(text) {
			if _, ok := q.Params[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return "", nil, fmt.Errorf("%w: %s has no value for @%s", ErrBinding, q.Describe(), strings.Join(missing, ", @"))
		}
		return text, []any{q.Params}, nil
	}

	if named := NamedPlaceholders(text); len(named) > 0 {
		return "", nil, fmt.Errorf("%w: %s expects named values @%s", ErrBinding, q.Describe(), strings.Join(named, ", @"))
	}
	if n := Placeholders(text); n != len(q.Args) {
		return "", nil, fmt.Errorf("%w: %s has %d placeholders but %d values", ErrBinding, q.Describe(), n, len(q.Args))
	}
	return text, q.Args, nil
}
