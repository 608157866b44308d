// Package app provides the main application structure for the panel.
// It coordinates the executor pool, process runner, task manager, sync
// bridge, foreground loop, stats scheduler, and metrics endpoint.
package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/CTRL-ALT-OP/docker-tools/internal/config"
	"github.com/CTRL-ALT-OP/docker-tools/internal/foreground"
	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/runner"
	"github.com/CTRL-ALT-OP/docker-tools/internal/task"
)

// App represents the main application structure.
// It holds references to all major components and manages their lifecycle.
type App struct {
	config *config.Config
	logger *logger.Logger

	pool   *runner.Pool
	runner *runner.Runner

	tasks  *task.Manager
	bridge *task.SyncBridge

	fg *foreground.Loop

	catalog *config.Catalog

	statsCron     *cron.Cron
	metricsServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// New creates a new App instance with the provided configuration and logger.
// Components are initialized in the Initialize() method.
func New(cfg *config.Config, log *logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

// Run starts the application and blocks until the context is cancelled,
// then performs graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		return err
	}

	a.logger.Info("Application is running")

	<-ctx.Done()

	return a.Shutdown()
}

// Runner returns the process runner.
func (a *App) Runner() *runner.Runner {
	return a.runner
}

// Tasks returns the task manager.
func (a *App) Tasks() *task.Manager {
	return a.tasks
}

// Bridge returns the cross-thread sync bridge.
func (a *App) Bridge() *task.SyncBridge {
	return a.bridge
}

// Foreground returns the foreground dispatch loop.
func (a *App) Foreground() *foreground.Loop {
	return a.fg
}

// Catalog returns the command preset catalog.
func (a *App) Catalog() *config.Catalog {
	return a.catalog
}
