package config

import (
	"fmt"
	"time"

	"github.com/kbukum/gatekit/logger"
	"github.com/kbukum/gatekit/util"
)

// Config is the full runtime configuration for the gatekit CLI. It is
// loaded from an optional YAML file, overlaid with environment
// variables, and validated before any pipeline runs.
type Config struct {
	// Name identifies the tool in logs and telemetry.
	Name string `yaml:"name" mapstructure:"name"`

	// Environment is the deployment environment (development, staging, production).
	Environment string `yaml:"environment" mapstructure:"environment"`

	// Debug enables verbose logging regardless of the configured level.
	Debug bool `yaml:"debug" mapstructure:"debug"`

	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Execution     ExecutionConfig     `yaml:"execution" mapstructure:"execution"`
	Provision     ProvisionConfig     `yaml:"provision" mapstructure:"provision"`
	Render        RenderConfig        `yaml:"render" mapstructure:"render"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// ExecutionConfig bounds how stage commands are launched.
type ExecutionConfig struct {
	// MaxParallel caps how many stages run concurrently. Zero means
	// unbounded (limited only by the pipeline's dependency structure).
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel"`

	// DefaultTimeout applies to any stage that does not declare its own.
	DefaultTimeout time.Duration `yaml:"default_timeout" mapstructure:"default_timeout"`

	// GracePeriod is how long a timed-out process gets between SIGTERM
	// and SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`

	// MaxOutput caps captured stdout/stderr per stream, e.g. "4MB".
	MaxOutput string `yaml:"max_output" mapstructure:"max_output"`
}

// ProvisionConfig controls tool installation before stages run.
type ProvisionConfig struct {
	// Skip disables provisioning entirely; stages run against whatever
	// the host already has.
	Skip bool `yaml:"skip" mapstructure:"skip"`

	// Timeout bounds a single check or install command.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RenderConfig supplies defaults for the render subcommands.
type RenderConfig struct {
	// Image is the base image for rendered Dockerfiles.
	Image string `yaml:"image" mapstructure:"image"`

	// RunsOn is the runner label for rendered workflow jobs.
	RunsOn string `yaml:"runs_on" mapstructure:"runs_on"`
}

// ObservabilityConfig wires the optional OTLP exporters.
type ObservabilityConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero values. Explicit settings are never
// overwritten, so it is safe to call after loading.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "gatekit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}

	c.Logging.ApplyDefaults()
	if c.Debug {
		c.Logging.Level = "debug"
	}

	if c.Execution.DefaultTimeout == 0 {
		c.Execution.DefaultTimeout = 30 * time.Minute
	}
	if c.Execution.GracePeriod == 0 {
		c.Execution.GracePeriod = 10 * time.Second
	}
	if c.Execution.MaxOutput == "" {
		c.Execution.MaxOutput = "4MB"
	}

	if c.Provision.Timeout == 0 {
		c.Provision.Timeout = 10 * time.Minute
	}

	if c.Render.Image == "" {
		c.Render.Image = "debian:bookworm-slim"
	}
	if c.Render.RunsOn == "" {
		c.Render.RunsOn = "ubuntu-latest"
	}

	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
		c.Observability.Insecure = true
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
	if c.Observability.Interval == 0 {
		c.Observability.Interval = 15 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if c.Execution.MaxParallel < 0 {
		return fmt.Errorf("execution.max_parallel must not be negative: %d", c.Execution.MaxParallel)
	}
	if c.Execution.DefaultTimeout <= 0 {
		return fmt.Errorf("execution.default_timeout must be positive: %s", c.Execution.DefaultTimeout)
	}
	if c.Execution.GracePeriod <= 0 {
		return fmt.Errorf("execution.grace_period must be positive: %s", c.Execution.GracePeriod)
	}
	if util.ParseSize(c.Execution.MaxOutput, -1) < 0 {
		return fmt.Errorf("invalid execution.max_output: %s", c.Execution.MaxOutput)
	}

	if c.Provision.Timeout <= 0 {
		return fmt.Errorf("provision.timeout must be positive: %s", c.Provision.Timeout)
	}

	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be between 0 and 1: %f", c.Observability.SampleRate)
	}

	return nil
}

// MaxOutputBytes converts Execution.MaxOutput into a byte count.
func (c *ExecutionConfig) MaxOutputBytes() int64 {
	return util.ParseSize(c.MaxOutput, 4*1024*1024)
}

// IsDevelopment reports whether the environment is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
