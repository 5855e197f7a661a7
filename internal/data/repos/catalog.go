package repos

import (
	_ "embed"
	"sync"

	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
)

//go:embed queries.yaml
var queriesYAML []byte

var (
	catalogOnce sync.Once
	catalog     *sqlq.Catalog
	catalogErr  error
)

// Catalog returns the SQL templates used by every repo in this package,
// including the schema.* DDL run by db.Migrate.
func Catalog() (*sqlq.Catalog, error) {
	catalogOnce.Do(func() {
		catalog, catalogErr = sqlq.ParseCatalog(queriesYAML)
	})
	return catalog, catalogErr
}
