package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ozgurerrdem/persona-watch/internal/api/server"
	"github.com/ozgurerrdem/persona-watch/internal/config"
	"github.com/ozgurerrdem/persona-watch/internal/scan"
	"github.com/ozgurerrdem/persona-watch/internal/source"
	"github.com/ozgurerrdem/persona-watch/internal/storage/factory"
	"github.com/ozgurerrdem/persona-watch/pkg/config/env"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type rootOptions struct {
	catalogPath string
	logLevel    string
}

// App wires the configured adapters, the store and the orchestrator.
type App struct {
	Registry     *source.Registry
	Store        *factory.Store
	Orchestrator *scan.Orchestrator
	Metrics      *prometheus.Registry
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

func loadEnv() {
	if err := env.LoadDotEnv(os.Getenv("APP_ENV"), server.DefaultEnvPath); err != nil {
		slog.Info("Skipping .env ...", "error", err)
	}
}

func loadRegistry(opts *rootOptions) (*config.Catalog, *config.Secrets, *source.Registry, error) {
	path := opts.catalogPath
	if path == "" {
		path = os.Getenv("ADAPTERS_CONFIG")
	}
	catalog, err := config.LoadCatalog(path)
	if err != nil {
		return nil, nil, nil, err
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		return nil, nil, nil, err
	}
	registry, err := config.BuildRegistry(catalog, secrets, config.Deps{})
	if err != nil {
		return nil, nil, nil, err
	}
	return catalog, secrets, registry, nil
}

func newApp(ctx context.Context, opts *rootOptions) (*App, error) {
	_, secrets, registry, err := loadRegistry(opts)
	if err != nil {
		return nil, err
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		return nil, err
	}
	store, err := factory.NewStore(ctx, storageCfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orchestrator := scan.NewOrchestrator(registry, store,
		scan.WithMetrics(scan.NewMetrics(reg)),
		scan.WithTimeout(secrets.ScanTimeout),
	)

	slog.Info("application ready", "storage", storageCfg.Type, "adapters", registry.Len())
	return &App{
		Registry:     registry,
		Store:        store,
		Orchestrator: orchestrator,
		Metrics:      reg,
	}, nil
}

func (a *App) Close() {
	a.Store.Close()
}
