// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Run     RunConfig     `mapstructure:"run" yaml:"run"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
}

// LoggerConfig controls the zap logger construction.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// RunConfig describes one supervised run: how many loops, where the URLs
// come from, and the pacing between iterations.
type RunConfig struct {
	Workers        int           `mapstructure:"workers" yaml:"workers"`
	URLFile        string        `mapstructure:"url_file" yaml:"url_file"`
	CatalogFile    string        `mapstructure:"catalog_file" yaml:"catalog_file"`
	SuccessPause   time.Duration `mapstructure:"success_pause" yaml:"success_pause"`
	FailurePause   time.Duration `mapstructure:"failure_pause" yaml:"failure_pause"`
	RefreshEvery   time.Duration `mapstructure:"refresh_every" yaml:"refresh_every"`
	LaunchPerSec   float64       `mapstructure:"launch_per_sec" yaml:"launch_per_sec"`
	SnapshotFormat string        `mapstructure:"snapshot_format" yaml:"snapshot_format"` // "table" or "json"
}

// BrowserConfig covers instance launch and per-session behavior.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	ExtraArgs         []string      `mapstructure:"extra_args" yaml:"extra_args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	TeardownTimeout   time.Duration `mapstructure:"teardown_timeout" yaml:"teardown_timeout"`
}

// EngineConfig holds the interaction engine budgets.
type EngineConfig struct {
	StepBudget   time.Duration `mapstructure:"step_budget" yaml:"step_budget"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	DOMBudget    time.Duration `mapstructure:"dom_budget" yaml:"dom_budget"`
	IdleBudget   time.Duration `mapstructure:"idle_budget" yaml:"idle_budget"`
	FinalDwell   time.Duration `mapstructure:"final_dwell" yaml:"final_dwell"`
}

// MaxWorkers bounds the supervisor loop count. Values outside [1, MaxWorkers]
// are rejected by Validate and clamped to the default by the prompt path.
const MaxWorkers = 50

// SetDefaults registers the default value for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "decoy-cli")
	v.SetDefault("logger.log_file", "decoy.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Run --
	v.SetDefault("run.workers", 1)
	v.SetDefault("run.url_file", "")
	v.SetDefault("run.catalog_file", "")
	v.SetDefault("run.success_pause", "1s")
	v.SetDefault("run.failure_pause", "500ms")
	v.SetDefault("run.refresh_every", "250ms")
	v.SetDefault("run.launch_per_sec", 2.0)
	v.SetDefault("run.snapshot_format", "table")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.teardown_timeout", "10s")

	// -- Engine --
	v.SetDefault("engine.step_budget", "12s")
	v.SetDefault("engine.poll_interval", "100ms")
	v.SetDefault("engine.dom_budget", "8s")
	v.SetDefault("engine.idle_budget", "2s")
	v.SetDefault("engine.final_dwell", "5s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Run.Workers < 1 || c.Run.Workers > MaxWorkers {
		return fmt.Errorf("run.workers must be between 1 and %d", MaxWorkers)
	}
	if c.Run.LaunchPerSec <= 0 {
		return fmt.Errorf("run.launch_per_sec must be positive")
	}
	if c.Run.RefreshEvery <= 0 {
		return fmt.Errorf("run.refresh_every must be a positive duration")
	}
	if c.Run.SnapshotFormat != "table" && c.Run.SnapshotFormat != "json" {
		return fmt.Errorf("run.snapshot_format must be %q or %q", "table", "json")
	}
	if c.Engine.PollInterval <= 0 {
		return fmt.Errorf("engine.poll_interval must be a positive duration")
	}
	if c.Engine.StepBudget < c.Engine.PollInterval {
		return fmt.Errorf("engine.step_budget must be at least one poll interval")
	}
	if c.Browser.TeardownTimeout <= 0 {
		return fmt.Errorf("browser.teardown_timeout must be a positive duration")
	}
	return nil
}
