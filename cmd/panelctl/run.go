package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CTRL-ALT-OP/docker-tools/internal/app"
	"github.com/CTRL-ALT-OP/docker-tools/internal/config"
	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/pidfile"
)

var (
	runConfigPath string
	runSourceDir  string
	runDebug      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the panel service",
	Long: `Start the panel service with the specified configuration.
This will initialize all components (executor pool, task manager, sync
bridge, foreground loop, metrics endpoint) and handle graceful shutdown.`,
	Run: runHandler,
}

func runHandler(cmd *cobra.Command, args []string) {
	cfg, log, ok := loadRuntime()
	if !ok {
		os.Exit(1)
	}

	log.Info("Starting panel service",
		logger.Field{Key: "version", Value: Version},
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "source_dir", Value: cfg.Project.SourceDir},
		logger.Field{Key: "pool_workers", Value: cfg.Runner.PoolWorkers},
	)

	if err := pidfile.Acquire(cfg.Project.SourceDir); err != nil {
		log.Error("failed to acquire PID file", err)
		os.Exit(1)
	}
	defer func() {
		if err := pidfile.Release(cfg.Project.SourceDir); err != nil {
			log.Error("failed to remove PID file", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, log)
	if err := a.Run(ctx); err != nil {
		log.Error("service exited with error", err)
		os.Exit(1)
	}

	log.Info("panel service stopped")
}

// loadRuntime loads .env, configuration, and the logger shared by all
// commands that run panel actions.
func loadRuntime() (*config.Config, *logger.Logger, bool) {
	if err := config.LoadEnvOptional("./.env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		return nil, nil, false
	}

	configPath := runConfigPath
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return nil, nil, false
	}

	if runDebug {
		cfg.Logging.Level = "debug"
	}
	if runSourceDir != "" {
		cfg.Project.SourceDir = runSourceDir
	}

	if errors := cfg.Validate(); len(errors) > 0 {
		fmt.Fprintln(os.Stderr, "Configuration validation failed:")
		for _, e := range errors {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
		return nil, nil, false
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, nil, false
	}

	return cfg, log, true
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&runConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	rootCmd.PersistentFlags().StringVarP(&runSourceDir, "source", "s", "", "Path to the project source directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&runDebug, "debug", "d", false, "Enable debug logging")
}
