package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
)

// Load reads and parses a TOML configuration file, applies defaults, and
// expands environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// Validate checks the configuration and returns every problem found, not
// just the first one.
func (c *Config) Validate() []error {
	var errors []error

	if c.Project.SourceDir == "" {
		errors = append(errors, fmt.Errorf("project.source_dir is required"))
	} else if err := validatePath(c.Project.SourceDir, "project.source_dir"); err != nil {
		errors = append(errors, err)
	}

	if c.Runner.PoolWorkers < 1 {
		errors = append(errors, fmt.Errorf("runner.pool_workers must be >= 1 (got %d)", c.Runner.PoolWorkers))
	}
	if c.Runner.TimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("runner.timeout_seconds must be >= 0 (got %d)", c.Runner.TimeoutSeconds))
	}

	if c.Tasks.ShutdownTimeoutSeconds < 1 {
		errors = append(errors, fmt.Errorf("tasks.shutdown_timeout_seconds must be >= 1 (got %d)", c.Tasks.ShutdownTimeoutSeconds))
	}
	if c.Tasks.StatsSchedule != "" {
		if _, err := cron.ParseStandard(c.Tasks.StatsSchedule); err != nil {
			errors = append(errors, fmt.Errorf("invalid tasks.stats_schedule: %w", err))
		}
	}

	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		errors = append(errors, fmt.Errorf("metrics.listen_addr is required when metrics is enabled"))
	}

	return errors
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

// expandEnvVars resolves ${VAR} and ${VAR:default} references in string
// fields that commonly carry them.
func expandEnvVars(c *Config) {
	c.Project.SourceDir = expand(c.Project.SourceDir)
	c.Project.PresetsPath = expand(c.Project.PresetsPath)
	c.Logging.Output = expand(c.Logging.Output)
	c.Metrics.ListenAddr = expand(c.Metrics.ListenAddr)
}

func expand(s string) string {
	return os.Expand(s, func(ref string) string {
		name, fallback, hasDefault := strings.Cut(ref, ":")
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return fallback
		}
		return ""
	})
}
