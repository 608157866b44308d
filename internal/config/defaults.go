package config

// DefaultIgnoreDirs lists the directory names cleanup removes when the
// configuration does not override them.
var DefaultIgnoreDirs = []string{
	"__pycache__",
	".pytest_cache",
	"pytest",
	".dist",
	"dist",
	".trunk",
}

func applyDefaults(c *Config) {
	if c.Project.IgnoreDirs == nil {
		c.Project.IgnoreDirs = append([]string(nil), DefaultIgnoreDirs...)
	}

	if c.Runner.PoolWorkers == 0 {
		c.Runner.PoolWorkers = 4
	}
	if c.Runner.TimeoutSeconds == 0 {
		c.Runner.TimeoutSeconds = 300
	}
	if c.Runner.Encoding == "" {
		c.Runner.Encoding = "utf-8"
	}

	if c.Tasks.ShutdownTimeoutSeconds == 0 {
		c.Tasks.ShutdownTimeoutSeconds = 5
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = "127.0.0.1:9091"
	}
}
