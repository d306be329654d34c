// Package app assembles the resolver and its collaborators from
// configuration. Both binaries share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/helpdesk-kb/kbresolver/internal/cache"
	"github.com/helpdesk-kb/kbresolver/internal/config"
	"github.com/helpdesk-kb/kbresolver/internal/corpus"
	"github.com/helpdesk-kb/kbresolver/internal/ingest"
	"github.com/helpdesk-kb/kbresolver/internal/observability"
	"github.com/helpdesk-kb/kbresolver/internal/resolver"
	"github.com/helpdesk-kb/kbresolver/internal/storage"
)

// App owns the engine and every resource that must be released on exit.
type App struct {
	Engine *resolver.Engine
	Loader corpus.Loader
	Cache  cache.Client
	DB     *sql.DB

	logger *observability.Logger
}

// Options tweak assembly for a particular binary.
type Options struct {
	Metrics *observability.Metrics
	// DisableCache skips the response cache even when configured.
	DisableCache bool
}

// New builds the loader, cache and engine described by cfg. It does not load
// any corpus; call Engine.Initialize for that.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	a := &App{logger: logger}

	loader, err := a.loader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Loader = loader

	engineOpts := []resolver.Option{
		resolver.WithConfig(cfg.Resolver),
		resolver.WithLogger(logger),
		resolver.WithMetrics(opts.Metrics),
		resolver.WithChunker(ingest.ChunkDocument, cfg.Data.WordsPerChunk),
	}

	if cfg.Cache.Enabled && !opts.DisableCache {
		c, err := NewCache(ctx, cfg.Cache)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Cache = c
		engineOpts = append(engineOpts, resolver.WithCache(c, cfg.Cache.TTL))
	}

	a.Engine = resolver.New(loader, engineOpts...)
	return a, nil
}

func (a *App) loader(ctx context.Context, cfg *config.Config) (corpus.Loader, error) {
	switch cfg.Storage.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
		db, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.DB = db
		a.logger.Info().Str("driver", cfg.Storage.Driver).Msg("Reading corpora from SQL store")
		return storage.NewCorpusRepository(db, a.logger), nil
	default:
		docs := ingest.NewDirectoryLoader(a.logger, cfg.Data.DocumentsDir, cfg.Data.MaxConcurrentExtraction)
		a.logger.Info().Str("dir", cfg.Data.Dir).Str("documents", cfg.Data.DocumentsDir).Msg("Reading corpora from files")
		return corpus.NewFileLoader(a.logger,
			cfg.Data.FilePath(cfg.Data.FAQFile),
			cfg.Data.FilePath(cfg.Data.LegalFile),
			cfg.Data.FilePath(cfg.Data.MiscFile),
			docs,
		), nil
	}
}

// NewCache creates the configured cache client.
func NewCache(ctx context.Context, cfg config.CacheConfig) (cache.Client, error) {
	switch cfg.Driver {
	case "redis":
		c, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return c, nil
	default:
		return cache.NewMemoryClient(cfg.MaxEntries), nil
	}
}

// Warm loads the corpora, bounded by timeout.
func (a *App) Warm(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return a.Engine.Initialize(ctx)
}

// Close releases the cache and database.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
