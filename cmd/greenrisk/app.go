package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"green-finance-risk/internal/artifacts"
	"green-finance-risk/internal/common/config"
	"green-finance-risk/internal/common/database"
	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/common/observability"
	"green-finance-risk/internal/companies"
	"green-finance-risk/internal/llm"
	"green-finance-risk/internal/prediction"
	"green-finance-risk/internal/report"
)

// app holds the process-wide components. Everything is built once and shared
// by the command that runs.
type app struct {
	cfg      *config.Config
	zapLog   *zap.Logger
	log      logger.Logger
	obs      *observability.Observability
	store    *artifacts.Store
	catalog  companies.Catalog
	pipeline *prediction.Pipeline

	closers []func() error
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if rootFlags.configPath != "" {
		cfg, err = config.LoadFromFile(rootFlags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if rootFlags.logLevel != "" {
		cfg.Logging.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		cfg.Logging.Format = rootFlags.logFormat
	}
	return cfg, nil
}

// newApp loads config, initializes the artifact store and wires the pipeline.
// An artifact failure here stops startup.
func newApp(ctx context.Context, withCatalog bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)
	a := &app{cfg: cfg, zapLog: zapLog, log: log}

	a.obs, err = observability.New(cfg.App.Name, observability.Options{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("observability setup failed: %w", err)
	}
	a.closers = append(a.closers, func() error { a.obs.Shutdown(); return nil })

	if withCatalog {
		if a.catalog, err = a.buildCatalog(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.store = artifacts.NewStore(artifacts.Config{
		Dir:        cfg.Models.Dir,
		ScalerFile: cfg.Models.ScalerFile,
		ModelFile:  cfg.Models.ModelFile,
	}, log)
	if err := a.store.Initialize(ctx); err != nil {
		a.Close()
		return nil, err
	}

	generator := report.NewGenerator(llm.Config{
		BaseURL:      cfg.LLM.BaseURL,
		APIKey:       cfg.LLM.APIKey,
		Model:        cfg.LLM.Model,
		Timeout:      config.GetDuration(cfg.LLM.Timeout),
		MaxRetries:   cfg.LLM.MaxRetries,
		RateLimitRPS: cfg.LLM.RateLimitRPS,
		RateBurst:    cfg.LLM.RateBurst,
	}, log)

	a.pipeline = prediction.NewPipeline(a.store, generator, a.obs, log)

	log.Info("Application initialized", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"dataSource":  cfg.Data.Source,
		"llmModel":    cfg.LLM.Model,
	})
	return a, nil
}

// buildCatalog opens the configured company source, wrapped in the redis
// cache when data.cache_ttl is set.
func (a *app) buildCatalog(ctx context.Context) (companies.Catalog, error) {
	cfg := a.cfg

	var catalog companies.Catalog
	switch cfg.Data.Source {
	case config.SourcePostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("postgres ping failed: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		catalog = companies.NewPostgresCatalog(pg, cfg.Data.CompanyTable)
	default:
		csvCatalog, err := companies.LoadCSV(cfg.Data.CSVPath)
		if err != nil {
			return nil, err
		}
		a.log.Info("Company dataset loaded", map[string]interface{}{
			"path":      cfg.Data.CSVPath,
			"companies": csvCatalog.Len(),
		})
		catalog = csvCatalog
	}

	if cfg.Data.CacheTTL <= 0 {
		return catalog, nil
	}
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return nil, err
	}
	if err := rdb.Ping(ctx); err != nil {
		a.log.Warn("Redis unavailable, catalog cache disabled", map[string]interface{}{"error": err.Error()})
		rdb.Close()
		return catalog, nil
	}
	a.closers = append(a.closers, rdb.Close)
	return companies.NewCachedCatalog(catalog, rdb.Client, time.Duration(cfg.Data.CacheTTL)*time.Millisecond, a.log), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Shutdown step failed", map[string]interface{}{"error": err.Error()})
		}
	}
	a.closers = nil
	_ = a.zapLog.Sync()
}
