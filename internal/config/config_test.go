package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Scheduler.Window != 50*time.Millisecond {
		t.Errorf("default window = %v, want 50ms", cfg.Scheduler.Window)
	}
	if cfg.Fit.BootstrapSamples != 100 {
		t.Errorf("default bootstrap samples = %d, want 100", cfg.Fit.BootstrapSamples)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "window", mutate: func(c *Config) { c.Scheduler.Window = 0 }, want: ErrInvalidWindow},
		{name: "bootstrap", mutate: func(c *Config) { c.Fit.BootstrapSamples = -1 }, want: ErrInvalidBootstrap},
		{name: "fit iterations", mutate: func(c *Config) { c.Fit.MaxIterations = 0 }, want: ErrInvalidIterations},
		{name: "deconv iterations", mutate: func(c *Config) { c.Deconvolution.Iterations = 0 }, want: ErrInvalidIterations},
		{name: "tolerance", mutate: func(c *Config) { c.Deconvolution.Tolerance = -1 }, want: ErrInvalidTolerance},
		{name: "relaxation", mutate: func(c *Config) { c.Deconvolution.Relaxation = 2 }, want: ErrInvalidRelaxation},
		{name: "concurrency", mutate: func(c *Config) { c.Fit.Concurrency = -2 }, want: ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scheduler:
  window: 20ms
fit:
  bootstrap_samples: 25
  seed: 7
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Scheduler.Window != 20*time.Millisecond {
		t.Errorf("window = %v, want 20ms", cfg.Scheduler.Window)
	}
	if cfg.Fit.BootstrapSamples != 25 || cfg.Fit.Seed != 7 {
		t.Errorf("fit = %+v", cfg.Fit)
	}
	if cfg.Fit.MaxIterations != Default().Fit.MaxIterations {
		t.Errorf("absent keys must keep defaults, got %d", cfg.Fit.MaxIterations)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("missing file err = %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("fit: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Fatal("malformed YAML should fail")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("deconvolution:\n  relaxation: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(invalid); !errors.Is(err, ErrInvalidRelaxation) {
		t.Fatalf("invalid value err = %v", err)
	}
}

func TestLoadExplicit(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("explicit missing path err = %v", err)
	}

	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("fit:\n  max_iterations: 42\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil || cfg.Fit.MaxIterations != 42 {
		t.Fatalf("Load(%q) = %+v, %v", path, cfg.Fit, err)
	}
	if FindFile(path) != path {
		t.Fatal("FindFile should return an existing explicit path")
	}
}

func TestDir(t *testing.T) {
	t.Parallel()
	if filepath.Base(Dir()) != AppName {
		t.Fatalf("Dir() = %q", Dir())
	}
}
