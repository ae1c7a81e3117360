package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := Config{}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug log level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := Config{Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})

	t.Run("execution defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		if cfg.Execution.DefaultTimeout != 30*time.Minute {
			t.Errorf("expected 30m default timeout, got %s", cfg.Execution.DefaultTimeout)
		}
		if cfg.Execution.GracePeriod != 10*time.Second {
			t.Errorf("expected 10s grace period, got %s", cfg.Execution.GracePeriod)
		}
		if cfg.Execution.MaxParallel != 0 {
			t.Errorf("expected unbounded parallelism, got %d", cfg.Execution.MaxParallel)
		}
		if got := cfg.Execution.MaxOutputBytes(); got != 4*1024*1024 {
			t.Errorf("expected 4MB output cap, got %d", got)
		}
	})

	t.Run("render and provision defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		if cfg.Render.Image != "debian:bookworm-slim" {
			t.Errorf("unexpected render image %q", cfg.Render.Image)
		}
		if cfg.Render.RunsOn != "ubuntu-latest" {
			t.Errorf("unexpected runs_on %q", cfg.Render.RunsOn)
		}
		if cfg.Provision.Skip {
			t.Error("provisioning should be on by default")
		}
		if cfg.Provision.Timeout != 10*time.Minute {
			t.Errorf("expected 10m provision timeout, got %s", cfg.Provision.Timeout)
		}
	})

	t.Run("explicit values survive defaulting", func(t *testing.T) {
		cfg := Config{Environment: "production"}
		cfg.Execution.DefaultTimeout = 5 * time.Minute
		cfg.Render.Image = "alpine:3.20"
		cfg.ApplyDefaults()
		if cfg.Execution.DefaultTimeout != 5*time.Minute {
			t.Errorf("default timeout overwritten: %s", cfg.Execution.DefaultTimeout)
		}
		if cfg.Render.Image != "alpine:3.20" {
			t.Errorf("render image overwritten: %q", cfg.Render.Image)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"invalid environment", func(c *Config) { c.Environment = "qa" }, "invalid environment"},
		{"negative parallelism", func(c *Config) { c.Execution.MaxParallel = -1 }, "max_parallel"},
		{"zero timeout", func(c *Config) { c.Execution.DefaultTimeout = 0 }, "default_timeout"},
		{"zero grace period", func(c *Config) { c.Execution.GracePeriod = 0 }, "grace_period"},
		{"bad max output", func(c *Config) { c.Execution.MaxOutput = "lots" }, "max_output"},
		{"zero provision timeout", func(c *Config) { c.Provision.Timeout = 0 }, "provision.timeout"},
		{"sample rate above one", func(c *Config) { c.Observability.SampleRate = 1.5 }, "sample_rate"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "gatekit.yml")

	yamlContent := `
environment: staging
execution:
  max_parallel: 4
  default_timeout: 15m
render:
  image: golang:1.26
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	err := LoadConfig("gatekit", &cfg, WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Execution.MaxParallel != 4 {
		t.Errorf("expected max_parallel 4, got %d", cfg.Execution.MaxParallel)
	}
	if cfg.Execution.DefaultTimeout != 15*time.Minute {
		t.Errorf("expected 15m timeout, got %s", cfg.Execution.DefaultTimeout)
	}
	if cfg.Render.Image != "golang:1.26" {
		t.Errorf("expected render image 'golang:1.26', got %q", cfg.Render.Image)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg Config
	// With no config file found, LoadConfig should still succeed (just empty config)
	err := LoadConfig("gatekit", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	cfg, err := Load(WithConfigFile("/nonexistent/gatekit.yml"), WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "gatekit" {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
	if cfg.Execution.DefaultTimeout != 30*time.Minute {
		t.Errorf("expected defaulted timeout, got %s", cfg.Execution.DefaultTimeout)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GATEKIT_EXECUTION_MAX_PARALLEL", "8")
	t.Setenv("GATEKIT_RENDER_RUNS_ON", "macos-latest")

	cfg, err := Load(WithConfigFile("/nonexistent/gatekit.yml"), WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Execution.MaxParallel != 8 {
		t.Errorf("expected env override max_parallel=8, got %d", cfg.Execution.MaxParallel)
	}
	if cfg.Render.RunsOn != "macos-latest" {
		t.Errorf("expected env override runs_on, got %q", cfg.Render.RunsOn)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./gatekit.yml": true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("gatekit", LoaderConfig{})
	if files.ConfigFile != "./gatekit.yml" {
		t.Errorf("expected config file at ./gatekit.yml, got %q", files.ConfigFile)
	}
}

func TestResolverPrefersToolFile(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./gatekit.yml": true,
		"./config.yml":  true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("gatekit", LoaderConfig{})
	if files.ConfigFile != "./gatekit.yml" {
		t.Errorf("tool-named file should win, got %q", files.ConfigFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
func (m *mockFS) Getwd() (string, error)    { return "/mock", nil }

func TestWithFileSystemOption(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"EXECUTION_MAX_PARALLEL", "execution.max_parallel"},
		{"LOGGING_LEVEL", "logging.level"},
		{"OBSERVABILITY_SAMPLE_RATE", "observability.sample_rate"},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			variants := generateEnvKeyVariants(tc.key)
			found := false
			for _, v := range variants {
				if v == tc.want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("variants for %s missing %q: %v", tc.key, tc.want, variants)
			}
		})
	}
}
