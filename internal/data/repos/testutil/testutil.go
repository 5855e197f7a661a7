package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/cederberg/liquidsite-sub003/internal/data/db"
	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	dbSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens a migrated database private to the calling test. It is an
// in-memory sqlite database unless TEST_POSTGRES_DSN names a postgres one,
// in which case the tables are shared between tests.
func DB(tb testing.TB, catalog *sqlq.Catalog) *db.Resource {
	tb.Helper()

	cfg := db.Config{Driver: db.DriverSQLite}
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		cfg = db.Config{Driver: db.DriverPostgres, DSN: dsn}
	} else {
		name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
		cfg.DSN = fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	}

	gdb, err := db.Open(cfg, Logger(tb))
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if cfg.Driver == db.DriverSQLite {
		sqlDB, err := gdb.DB()
		if err != nil {
			tb.Fatalf("failed to reach test db pool: %v", err)
		}
		// one connection keeps the in-memory database alive
		sqlDB.SetMaxOpenConns(1)
	}
	tb.Cleanup(func() { _ = db.Close(gdb) })

	res := db.NewResource(gdb, catalog)
	if err := db.Migrate(context.Background(), res, Logger(tb)); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return res
}

// Name returns a short name unique across tests and runs, for keys that
// would collide in a shared postgres database.
func Name(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
