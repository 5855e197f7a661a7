package app

import (
	"testing"
	"time"

	"github.com/cederberg/liquidsite-sub003/internal/data/contentquery"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, name := range []string{"DB_DRIVER", "DB_DSN", "QUERY_DEFAULT_LIMIT", "OTEL_ENABLED", "DB_SLOW_THRESHOLD_MS"} {
		t.Setenv(name, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("Driver: got=%q", cfg.DB.Driver)
	}
	if cfg.QueryDefaultLimit != contentquery.DefaultCount {
		t.Fatalf("QueryDefaultLimit: got=%d", cfg.QueryDefaultLimit)
	}
	if cfg.DB.SlowThreshold != time.Second {
		t.Fatalf("SlowThreshold: got=%v", cfg.DB.SlowThreshold)
	}
	if cfg.Otel.Enabled {
		t.Fatalf("tracing must be off by default")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/ls.db")
	t.Setenv("DB_SLOW_THRESHOLD_MS", "50")
	t.Setenv("QUERY_DEFAULT_LIMIT", "-3")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-key=abc")

	cfg := LoadConfig(logger.Nop())
	if cfg.DB.Driver != "sqlite" || cfg.DB.SQLitePath != "/tmp/ls.db" {
		t.Fatalf("DB: got=%+v", cfg.DB)
	}
	if cfg.DB.SlowThreshold != 50*time.Millisecond {
		t.Fatalf("SlowThreshold: got=%v", cfg.DB.SlowThreshold)
	}
	if cfg.QueryDefaultLimit != contentquery.DefaultCount {
		t.Fatalf("negative limit should fall back, got=%d", cfg.QueryDefaultLimit)
	}
	if !cfg.Otel.Enabled || cfg.Otel.Headers["x-key"] != "abc" {
		t.Fatalf("Otel: got=%+v", cfg.Otel)
	}
}
