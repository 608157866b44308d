package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/CTRL-ALT-OP/docker-tools/internal/config"
	"github.com/CTRL-ALT-OP/docker-tools/internal/foreground"
	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/runner"
	"github.com/CTRL-ALT-OP/docker-tools/internal/task"
)

const foregroundQueueSize = 128

// Initialize initializes all application components.
// It sets up the executor pool, process runner, task manager, sync bridge,
// foreground loop, preset catalog, stats scheduler, and metrics endpoint.
func (a *App) Initialize(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	// 1. Executor pool and process runner
	validator, err := runner.NewValidator(a.config.Runner.DenyPatterns)
	if err != nil {
		return fmt.Errorf("failed to compile deny patterns: %w", err)
	}
	a.pool = runner.NewPool(a.config.Runner.PoolWorkers, a.logger)
	a.runner = runner.New(a.pool, validator, a.logger)

	// 2. Task manager, with prometheus collectors when metrics are enabled
	var managerOpts []task.ManagerOption
	if a.config.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		managerOpts = append(managerOpts, task.WithMetrics(task.NewMetrics("panel", registry)))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		a.metricsServer = &http.Server{
			Addr:              a.config.Metrics.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("metrics server failed", err)
			}
		}()
		a.logger.Info("metrics endpoint started",
			logger.Field{Key: "addr", Value: a.config.Metrics.ListenAddr})
	}

	a.tasks = task.NewManager(a.logger, managerOpts...)
	a.tasks.Start()

	// 3. Sync bridge and foreground loop
	a.bridge = task.NewSyncBridge(a.tasks, a.logger)
	a.fg = foreground.NewLoop(foregroundQueueSize, a.logger)

	// 4. Command preset catalog
	catalog, err := config.LoadCatalog(a.config.Project.PresetsPath)
	if err != nil {
		return fmt.Errorf("failed to load preset catalog: %w", err)
	}
	a.catalog = catalog

	// 5. Periodic stats reporting
	if a.config.Tasks.StatsSchedule != "" {
		a.statsCron = cron.New()
		if _, err := a.statsCron.AddFunc(a.config.Tasks.StatsSchedule, a.reportStats); err != nil {
			return fmt.Errorf("failed to schedule stats job: %w", err)
		}
		a.statsCron.Start()
	}

	a.mu.Lock()
	a.started = true
	a.mu.Unlock()

	return nil
}

// reportStats snapshots the task registry and logs it from the foreground
// loop, the same way GUI status updates are delivered.
func (a *App) reportStats() {
	stats := a.tasks.GetStats()
	a.fg.Post(func() {
		a.logger.Info("task stats",
			logger.Field{Key: "total", Value: stats.Total},
			logger.Field{Key: "running", Value: stats.Running},
			logger.Field{Key: "completed", Value: stats.Completed})
	})
}
