// Package bootstrap assembles the dashboard service and its backing stores
// from configuration. The server and the CLI share it.
package bootstrap

import (
	"fmt"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/cache"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/config"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/pages"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/repository"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/repository/sqlstore"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/service"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/source"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// App owns every long-lived dependency of a process.
type App struct {
	Config     *config.Config
	DB         *sqlstore.DB
	Records    repository.RecordRepository
	Storage    storage.ObjectStorage
	Cache      cache.DatasetCache
	Registry   *pages.Registry
	Dashboards *service.DashboardService
}

// New wires the application. A database that cannot be reached only disables
// the SQL-backed pages; file pages keep working.
func New(cfg *config.Config) (*App, error) {
	registry, err := pages.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("invalid page registry: %w", err)
	}

	app := &App{Config: cfg, Registry: registry}

	if needsSQL(registry) {
		db, err := sqlstore.NewDB(&cfg.Database)
		if err != nil {
			log.Warn().Err(err).Str("driver", cfg.Database.Driver).Msg("database unavailable, sql pages disabled")
		} else {
			app.DB = db
			app.Records = repository.NewRecordRepository(db)
		}
	}

	var opener source.Opener = source.LocalOpener{Dir: cfg.App.DataDir}
	if cfg.Storage.Enabled() {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to init object storage: %w", err)
		}
		app.Storage = client
		opener = source.ObjectOpener{Storage: client}
	}

	app.Cache, err = cache.NewDatasetCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("cache unavailable, falling back to memory")
		app.Cache = cache.NewMemoryDatasetCache(cfg.Cache.MemorySize, time.Duration(cfg.Cache.DatasetTTLSeconds)*time.Second)
	}

	sources := make(map[string]source.Source)
	for _, p := range registry.List() {
		src, err := p.NewSource(app.Records, opener)
		if err != nil {
			log.Warn().Err(err).Str("page", p.Name).Msg("page source unavailable")
			continue
		}
		sources[p.Name] = src
	}

	app.Dashboards = service.NewDashboardService(registry, sources, app.Cache)
	return app, nil
}

func needsSQL(registry *pages.Registry) bool {
	for _, p := range registry.List() {
		if p.Source.Kind == pages.SourceSQL {
			return true
		}
	}
	return false
}

// Close releases the database pool.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
}
