// Package domain declares the column tables of every liquidsite entity.
// Each table is built once by its define function; column order is the
// order the schema and the catalog templates list the columns in.
package domain

import (
	"time"

	"github.com/cederberg/liquidsite-sub003/internal/data/record"
)

// never is the default for unset dates. The data layer stores it as NULL.
var never time.Time

func register(e *record.Entity) *record.Entity {
	return record.DefaultRegistry.Register(e)
}

// Entities lists every table in schema creation order.
func Entities() []*record.Entity {
	return []*record.Entity{
		Domain.Entity,
		Host.Entity,
		Content.Entity,
		Attribute.Entity,
		User.Entity,
		Group.Entity,
		UserGroup.Entity,
		Permission.Entity,
		Lock.Entity,
	}
}

// DomainTable is LS_DOMAIN: one row per hosted domain.
type DomainTable struct {
	Entity      *record.Entity
	Name        *record.Column[string]
	Description *record.Column[string]
	Options     *record.Column[string]
}

var Domain = defineDomain()

func defineDomain() *DomainTable {
	t := &DomainTable{
		Name:        record.String("NAME", ""),
		Description: record.String("DESCRIPTION", ""),
		Options:     record.String("OPTIONS", ""),
	}
	t.Entity = register(record.NewEntity("LS_DOMAIN", t.Name, t.Description, t.Options))
	return t
}

// HostTable is LS_HOST: host names served by a domain.
type HostTable struct {
	Entity      *record.Entity
	Domain      *record.Column[string]
	Name        *record.Column[string]
	Description *record.Column[string]
	Options     *record.Column[string]
}

var Host = defineHost()

func defineHost() *HostTable {
	t := &HostTable{
		Domain:      record.String("DOMAIN", ""),
		Name:        record.String("NAME", ""),
		Description: record.String("DESCRIPTION", ""),
		Options:     record.String("OPTIONS", ""),
	}
	t.Entity = register(record.NewEntity("LS_HOST", t.Domain, t.Name, t.Description, t.Options))
	return t
}
