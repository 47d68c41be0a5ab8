package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/fingerprint"
	"github.com/vk/themegrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW         io.Writer
	logger       *slog.Logger
	registry     *registry.Registry
	model        *config.Model
	modules      []registry.Module
	fingerprints *fingerprint.Table
}

// closer is implemented by modules holding external processes.
type closer interface {
	Close() error
}

// NewApp loads the pipeline file and prepares the registry. Without
// explicit modules, the core modules are registered. Configuration
// problems are returned as *config.ConfigError.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		l, err := LoaderFor(appConfig.ConfigPath)
		if err != nil {
			return nil, err
		}
		loader = l
	}

	model, err := loader.Load(ctx, appConfig.ConfigPath, appConfig.Vars)
	if err != nil {
		return nil, err
	}
	model.ApplyDefaults()
	if err := model.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if appConfig.Concurrency > 0 {
		model.Pipeline.Concurrency = appConfig.Concurrency
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded and translated into unified model.", "groups", len(model.Groups))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules(model)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "transforms", reg.Names())

	reg.PopulateFromModel(model)
	if err := reg.Validate(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:         outW,
		logger:       logger,
		registry:     reg,
		model:        model,
		modules:      modules,
		fingerprints: fingerprint.NewTable(),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded pipeline.
func (a *App) Model() *config.Model {
	return a.model
}

// Context returns ctx carrying the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Close releases resources held by modules, such as the Dart Sass process.
func (a *App) Close() error {
	var firstErr error
	for _, mod := range a.modules {
		if c, ok := mod.(closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("closing module: %w", err)
			}
		}
	}
	return firstErr
}
