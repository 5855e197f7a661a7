package db

import (
	"context"
	"fmt"

	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

// SchemaPrefix marks the catalog templates holding DDL. They run in name
// order, so names carry a sequence number: "schema.010_domain".
const SchemaPrefix = "schema."

// Migrate creates every missing table in one transaction.
func Migrate(ctx context.Context, res *Resource, logg *logger.Logger) error {
	names := res.Catalog().WithPrefix(SchemaPrefix)
	if len(names) == 0 {
		return fmt.Errorf("migrate: catalog holds no %s* templates", SchemaPrefix)
	}
	return res.InTx(ctx, func(tx *Resource) error {
		for _, name := range names {
			logg.Debug("Applying schema template", "template", name)
			if _, err := tx.Exec(ctx, sqlq.Template(name, "applying "+name)); err != nil {
				return fmt.Errorf("migrate %s: %w", name, err)
			}
		}
		logg.Info("Schema migrated", "templates", len(names))
		return nil
	})
}
