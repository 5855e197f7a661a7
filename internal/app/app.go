// Package app wires configuration, the database connection and the entity
// repos into one handle for commands.
package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cederberg/liquidsite-sub003/internal/data/db"
	"github.com/cederberg/liquidsite-sub003/internal/data/repos"
	"github.com/cederberg/liquidsite-sub003/internal/observability"
	"github.com/cederberg/liquidsite-sub003/internal/platform/envutil"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

type App struct {
	Log   *logger.Logger
	DB    *gorm.DB
	Res   *db.Resource
	Cfg   Config
	Repos *repos.Repos

	shutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	shutdown := observability.InitOTel(ctx, log, cfg.Otel)

	catalog, err := repos.Catalog()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load query catalog: %w", err)
	}
	gdb, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	res := db.NewResource(gdb, catalog)

	log.Info("Wiring repos...")
	return &App{
		Log:      log,
		DB:       gdb,
		Res:      res,
		Cfg:      cfg,
		Repos:    repos.New(res, log),
		shutdown: shutdown,
	}, nil
}

func (a *App) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, a.Res, a.Log)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.DB != nil {
		if err := db.Close(a.DB); err != nil {
			a.Log.Warn("closing database failed", "error", err)
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
