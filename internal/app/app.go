package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/gridflow/internal/compiler"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/hcl"
	"github.com/vk/gridflow/internal/metrics"
	"github.com/vk/gridflow/internal/pipeline"
	"github.com/vk/gridflow/internal/registry"
	"github.com/vk/gridflow/internal/stages"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	metrics    *metrics.Collector
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger, writing to logW, and registry. Without modules the
// built-in stages are registered.
func NewApp(logW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = stages.Modules()
	}
	reg := registry.Load(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	return &App{
		logger:   logger,
		config:   cfg,
		registry: reg,
		metrics:  metrics.New(),
	}
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the collector the executor reports to.
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}

// withLogger installs the app logger on ctx.
func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Graph builds the pipeline graph from the configured file or preset.
func (a *App) Graph(ctx context.Context) (*pipeline.Graph, error) {
	ctx = a.withLogger(ctx)
	switch {
	case a.config.PipelinePath != "":
		g, err := hcl.Load(ctx, a.registry, a.config.PipelinePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load pipeline: %w", err)
		}
		return g, nil
	case a.config.Preset != "":
		return stages.BuildPreset(a.config.Preset, a.config.Source)
	default:
		return nil, fmt.Errorf("no pipeline or preset configured")
	}
}

// Compile builds and compiles the configured pipeline.
func (a *App) Compile(ctx context.Context) (*compiler.Workflow, error) {
	g, err := a.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(a.withLogger(ctx), g)
}

// Workflow returns the configured workflow document, reading it from disk
// when a workflow path is set and compiling it otherwise.
func (a *App) Workflow(ctx context.Context) (*compiler.Workflow, error) {
	if a.config.WorkflowPath == "" {
		return a.Compile(ctx)
	}
	wf, err := compiler.ReadFile(a.config.WorkflowPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}
	a.logger.Debug("Workflow loaded from file.", "path", a.config.WorkflowPath, "tasks", len(wf.Tasks))
	return wf, nil
}

// WriteWorkflow writes wf to path, or to w in format when path is empty or "-".
func (a *App) WriteWorkflow(w io.Writer, wf *compiler.Workflow, path, format string) error {
	if path == "" || path == "-" {
		if format == "" {
			format = "json"
		}
		b, err := compiler.Marshal(wf, format)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	if err := compiler.WriteFile(path, wf); err != nil {
		return err
	}
	a.logger.Info("Workflow written.", "path", path, "tasks", len(wf.Tasks), "fingerprint", wf.Fingerprint)
	return nil
}

// Validate checks a workflow document against the registered components.
func (a *App) Validate(ctx context.Context, wf *compiler.Workflow) error {
	if err := wf.Validate(); err != nil {
		return err
	}
	return a.registry.ValidateWorkflow(a.withLogger(ctx), wf)
}

// ExportComponents writes every registered component as an HCL file under dir.
func (a *App) ExportComponents(ctx context.Context, dir string) ([]string, error) {
	return hcl.ExportComponents(a.withLogger(ctx), dir, a.registry.Components())
}
