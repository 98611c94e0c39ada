// app.go wires the application together: configuration, logging, metrics,
// skill discovery, the upstream session factory, and the orchestrator.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haasonsaas/conduit/internal/agentsdk"
	"github.com/haasonsaas/conduit/internal/config"
	"github.com/haasonsaas/conduit/internal/hooks"
	"github.com/haasonsaas/conduit/internal/observability"
	"github.com/haasonsaas/conduit/internal/orchestrator"
	"github.com/haasonsaas/conduit/internal/skills"
	"github.com/haasonsaas/conduit/internal/workspace"
)

// app holds the wired components shared by the CLI commands.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	selector *skills.Selector
	watcher  *skills.Watcher
	orch     *orchestrator.Orchestrator
}

// buildApp loads configuration and constructs the component graph. The
// skill watcher is returned unstarted; serve runs it, one-shot commands
// don't need it.
func buildApp(configPath string, debug bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	selector := skills.NewSelector(cfg.Skills.Directories, cfg.Skills.Disabled)
	watcher, err := skills.NewWatcher(selector, logger)
	if err != nil {
		logger.Warn("skill watcher unavailable", "error", err)
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	factory, err := agentsdk.NewFactory(agentsdk.Config{APIKey: apiKey}, logger)
	if err != nil {
		return nil, err
	}

	pipeline := hooks.NewPipeline(hooks.Limits{
		MaxArgBytes:     cfg.Tools.MaxArgBytes,
		MaxCommandChars: cfg.Tools.MaxCommandChars,
		MaxResultBytes:  cfg.Tools.MaxResultBytes,
		PreviewBytes:    cfg.Tools.LogPreviewBytes,
	}, cfg.Tools.BlockedTools, logger)

	orch := orchestrator.New(orchestrator.Options{
		Factory:    factory,
		Skills:     selector,
		Hooks:      pipeline,
		Workspace:  workspace.NewResolver(cfg.Workspace.AgentRunRoot),
		Compaction: cfg.Session.Compaction,
		Logger:     logger,
		Metrics:    metrics,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		selector: selector,
		watcher:  watcher,
		orch:     orch,
	}, nil
}

// shutdown tears down live sessions and the watcher.
func (a *app) shutdown(ctx context.Context) {
	a.orch.Reset(ctx)
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Warn("closing skill watcher", "error", err)
		}
	}
}
