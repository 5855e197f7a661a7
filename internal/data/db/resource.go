// Package db connects the data layer to a relational database through
// gorm.
package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cederberg/liquidsite-sub003/internal/data/gateway"
	"github.com/cederberg/liquidsite-sub003/internal/data/rowset"
	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
)

// Resource runs catalog templates and rendered SQL on a gorm handle, which
// may be a transaction.
type Resource struct {
	db      *gorm.DB
	catalog *sqlq.Catalog
	tx      bool
}

var _ gateway.Resource = (*Resource)(nil)

func NewResource(gdb *gorm.DB, catalog *sqlq.Catalog) *Resource {
	return &Resource{db: gdb, catalog: catalog}
}

func (r *Resource) DB() *gorm.DB { return r.db }

func (r *Resource) Catalog() *sqlq.Catalog { return r.catalog }

// InTransaction reports whether r is bound to a transaction opened by InTx.
func (r *Resource) InTransaction() bool { return r != nil && r.tx }

func (r *Resource) Query(ctx context.Context, q sqlq.Query) (rowset.Result, error) {
	text, args, err := r.catalog.Resolve(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.WithContext(ctx).Raw(text, normalize(args)...).Rows()
	if err != nil {
		return nil, err
	}
	return rowset.Scan(rows)
}

func (r *Resource) Exec(ctx context.Context, q sqlq.Query) (int64, error) {
	text, args, err := r.catalog.Resolve(q)
	if err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Exec(text, normalize(args)...)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// InTx runs fn on a resource bound to one transaction, committing when fn
// returns nil. Nested calls run in a savepoint.
func (r *Resource) InTx(ctx context.Context, fn func(tx *Resource) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return errors.New("db: transaction on nil resource")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Resource{db: tx, catalog: r.catalog, tx: true})
	})
}

// normalize maps the zero time to NULL and other times to UTC, in
// positional values and in a named-value map alike.
func normalize(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if params, ok := a.(map[string]any); ok {
			m := make(map[string]any, len(params))
			for k, v := range params {
				m[k] = normalizeValue(v)
			}
			out[i] = m
			continue
		}
		out[i] = normalizeValue(a)
	}
	return out
}

func normalizeValue(v any) any {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return nil
		}
		return t.UTC()
	}
	return v
}
