package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects and addresses the database. DSN wins over the discrete
// postgres fields when set.
type Config struct {
	Driver        string
	DSN           string
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	SQLitePath    string
	SlowThreshold time.Duration
	LogSQL        bool
}

func (c Config) dsn() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	switch c.driver() {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return "file::memory:?cache=shared"
		}
		return c.SQLitePath
	default:
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			c.User,
			c.Password,
			c.Host,
			c.Port,
			c.Name,
		)
	}
}

func (c Config) driver() string {
	return strings.ToLower(strings.TrimSpace(c.Driver))
}

// Open connects through gorm. Statement logging goes to stdout at warn
// level, or at info level when LogSQL is set.
func Open(cfg Config, logg *logger.Logger) (*gorm.DB, error) {
	serviceLog := logg.With("service", "Database", "driver", cfg.driver())

	var dialector gorm.Dialector
	switch cfg.driver() {
	case DriverPostgres, "":
		dialector = postgres.Open(cfg.dsn())
	case DriverSQLite:
		dialector = sqlite.Open(cfg.dsn())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := gormLogger.Warn
	if cfg.LogSQL {
		level = gormLogger.Info
	}
	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.driver(), err)
	}
	serviceLog.Info("Database connected")
	return gdb, nil
}

// Close releases the pool behind gdb.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
