// Package app wires configuration, models, rules and the engine into a
// runnable advisor. The CLI and the server binary share it.
package app

import (
	"context"

	"go.uber.org/zap"

	"invoice-advisor/api"
	"invoice-advisor/core/assembler"
	"invoice-advisor/core/catalog"
	"invoice-advisor/core/engine"
	"invoice-advisor/core/features"
	"invoice-advisor/core/model"
	"invoice-advisor/core/policy"
	"invoice-advisor/internal/config"
	apperrors "invoice-advisor/internal/errors"
	"invoice-advisor/internal/metrics"
)

// Version is set at build time with -ldflags "-X invoice-advisor/internal/app.Version=..."
var Version = "dev"

// App holds the long-lived components
type App struct {
	Config    *config.Config
	Ensemble  *model.Ensemble
	Processor *policy.Processor
	Engine    *engine.Engine
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// New loads rules and models and builds the engine. A model that fails to
// load does not fail New: the ensemble reports it through Ready, so
// read-only commands can still describe what was loaded.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	table, err := LoadRules(cfg)
	if err != nil {
		return nil, err
	}
	processor, err := policy.NewProcessor(table)
	if err != nil {
		return nil, err
	}

	source, err := Source(cfg)
	if err != nil {
		return nil, err
	}
	ensemble, loadErr := model.Load(ctx, source, cfg.Models, logger.Named("model"))
	if ensemble == nil {
		return nil, loadErr
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace, cfg.Metrics.Runtime)
		for _, info := range ensemble.Info() {
			m.SetModel(info.Name, info.Version)
		}
	}

	eng := engine.NewEngine(
		features.NewEncoder(),
		ensemble,
		processor,
		assembler.New(catalog.Default(), cfg.Currency),
		engine.WithMetrics(m),
		engine.WithLogger(logger.Named("engine")),
	)

	return &App{
		Config:    cfg,
		Ensemble:  ensemble,
		Processor: processor,
		Engine:    eng,
		Metrics:   m,
		Logger:    logger,
	}, nil
}

// Ready reports whether every model loaded
func (a *App) Ready() error {
	return a.Ensemble.Ready()
}

// Server builds the HTTP API over the app
func (a *App) Server() *api.Server {
	return api.NewServer(api.Options{
		Version:      Version,
		Engine:       a.Engine,
		Models:       a.Ensemble,
		Currency:     a.Config.Currency,
		Metrics:      a.Metrics,
		Logger:       a.Logger.Named("api"),
		MaxBodyBytes: a.Config.Server.MaxBodyBytes,
	})
}

// Serve runs the HTTP API until ctx is cancelled. It refuses to start when
// any model is unavailable.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Ready(); err != nil {
		return apperrors.Wrap(apperrors.TypeModelUnavailable, "refusing to serve", err)
	}
	s := a.Config.Server
	return a.Server().Run(ctx, api.RunConfig{
		Addr:            s.Addr,
		ReadTimeout:     s.ReadTimeout.Duration,
		WriteTimeout:    s.WriteTimeout.Duration,
		IdleTimeout:     s.IdleTimeout.Duration,
		ShutdownTimeout: s.ShutdownTimeout.Duration,
	})
}

// Source routes artifact URIs to the filesystem or the object store
func Source(cfg *config.Config) (model.Source, error) {
	router := &model.Router{Files: &model.FileSource{BaseDir: cfg.ModelDir}}
	if cfg.ObjectStore.Endpoint != "" {
		objects, err := model.NewObjectStoreSource(cfg.ObjectStore)
		if err != nil {
			return nil, apperrors.Config("invalid object store configuration", err)
		}
		router.Objects = objects
	}
	return router, nil
}

// LoadRules reads the configured rules file, or returns the built-in table
func LoadRules(cfg *config.Config) (*policy.Table, error) {
	if cfg.RulesPath == "" {
		return policy.DefaultTable(), nil
	}
	return policy.LoadTable(cfg.RulesPath)
}
