package app

import (
	"context"
	"time"

	"github.com/CTRL-ALT-OP/docker-tools/internal/task"
)

// Shutdown performs graceful shutdown of all components.
// It stops the application in the following order:
//  1. Cancels the application context
//  2. Stops the stats scheduler
//  3. Stops the metrics endpoint
//  4. Shuts down the task manager and executor pool within the budget
//  5. Stops the foreground loop
//
// The method is thread-safe and idempotent.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	a.cancel()

	if a.statsCron != nil {
		<-a.statsCron.Stop().Done()
	}

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Error("failed to stop metrics server", err)
		}
	}

	err := a.shutdownTasks()

	if a.fg != nil {
		a.fg.Stop()
	}

	a.started = false
	a.logger.Info("Application shutdown complete")

	return err
}

func (a *App) shutdownTasks() error {
	budget := a.config.Tasks.ShutdownTimeout()
	if err := task.ShutdownAll(a.tasks, budget, a.pool); err != nil {
		a.logger.Error("shutdown finished with leftovers", err)
		return err
	}
	return nil
}
