package app

import (
	"time"

	"github.com/cederberg/liquidsite-sub003/internal/data/contentquery"
	"github.com/cederberg/liquidsite-sub003/internal/data/db"
	"github.com/cederberg/liquidsite-sub003/internal/observability"
	"github.com/cederberg/liquidsite-sub003/internal/platform/envutil"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

type Config struct {
	LogMode           string
	DB                db.Config
	QueryDefaultLimit int
	Otel              observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		LogMode: envutil.String("LOG_MODE", "development"),
		DB: db.Config{
			Driver:        envutil.String("DB_DRIVER", db.DriverPostgres),
			DSN:           envutil.String("DB_DSN", ""),
			Host:          envutil.String("POSTGRES_HOST", "localhost"),
			Port:          envutil.String("POSTGRES_PORT", "5432"),
			User:          envutil.String("POSTGRES_USER", "liquidsite"),
			Password:      envutil.String("POSTGRES_PASSWORD", ""),
			Name:          envutil.String("POSTGRES_NAME", "liquidsite"),
			SQLitePath:    envutil.String("SQLITE_PATH", ""),
			SlowThreshold: envutil.Millis("DB_SLOW_THRESHOLD_MS", time.Second),
			LogSQL:        envutil.Bool("DB_LOG_SQL", false),
		},
		QueryDefaultLimit: envutil.Int("QUERY_DEFAULT_LIMIT", contentquery.DefaultCount),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "liquidsite-db"),
			Environment: envutil.String("ENVIRONMENT", ""),
			Version:     envutil.String("VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1),
		},
	}
	if cfg.QueryDefaultLimit <= 0 {
		log.Warn("QUERY_DEFAULT_LIMIT must be positive, using default", "value", cfg.QueryDefaultLimit)
		cfg.QueryDefaultLimit = contentquery.DefaultCount
	}
	log.Debug("Configuration loaded",
		"db_driver", cfg.DB.Driver,
		"db_dsn", cfg.DB.DSN,
		"query_default_limit", cfg.QueryDefaultLimit,
		"otel_enabled", cfg.Otel.Enabled,
	)
	return cfg
}
