// Package config provides configuration loading and validation for the panel.
// It supports TOML configuration files with environment variable expansion,
// default values, and comprehensive validation.
//
// Configuration structure:
//   - [project]: Project tree location and cleanup targets
//   - [runner]: Process runner pool size, timeout, and command screening
//   - [tasks]: Task manager shutdown budget and stats schedule
//   - [logging]: Logging level, format, and output
//   - [metrics]: Prometheus endpoint settings
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax, for example: source_dir = "${PANEL_SOURCE_DIR:~/projects}".
package config

import "time"

// Config represents the main application configuration.
type Config struct {
	Project ProjectConfig `toml:"project"`
	Runner  RunnerConfig  `toml:"runner"`
	Tasks   TasksConfig   `toml:"tasks"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
}

// ProjectConfig locates the project tree the panel operates on.
type ProjectConfig struct {
	SourceDir   string   `toml:"source_dir"`
	IgnoreDirs  []string `toml:"ignore_dirs"`
	PresetsPath string   `toml:"presets_path"`
}

// RunnerConfig tunes the process runner and its executor pool.
type RunnerConfig struct {
	PoolWorkers    int      `toml:"pool_workers"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Encoding       string   `toml:"encoding"`
	DenyPatterns   []string `toml:"deny_patterns"`
}

// Timeout returns the per-invocation cap as a duration.
func (c RunnerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TasksConfig tunes the background task manager.
type TasksConfig struct {
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
	StatsSchedule          string `toml:"stats_schedule"`
}

// ShutdownTimeout returns the shutdown budget as a duration.
func (c TasksConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}
