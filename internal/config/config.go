// Package config loads tool defaults from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	// AppName names the XDG config subdirectory.
	AppName = "nmrcore"

	// DefaultConfigFile is looked up in the working directory.
	DefaultConfigFile = ".nmrcore.yaml"

	// XDGConfigFile is looked up below the XDG config home.
	XDGConfigFile = "config.yaml"
)

// Configuration errors.
var (
	ErrConfigNotFound     = errors.New("config: configuration file not found")
	ErrInvalidWindow      = errors.New("config: scheduler window must be positive")
	ErrInvalidBootstrap   = errors.New("config: bootstrap samples must be non-negative")
	ErrInvalidIterations  = errors.New("config: iteration limits must be positive")
	ErrInvalidTolerance   = errors.New("config: tolerance must be non-negative")
	ErrInvalidRelaxation  = errors.New("config: relaxation must be in (0, 2)")
	ErrInvalidConcurrency = errors.New("config: concurrency must be non-negative")
)

// Config holds defaults for the scheduler, fitter and deconvolution.
type Config struct {
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Fit           FitConfig           `yaml:"fit"`
	Deconvolution DeconvolutionConfig `yaml:"deconvolution"`
	Log           LogConfig           `yaml:"log"`
}

// SchedulerConfig configures change notification.
type SchedulerConfig struct {
	Window time.Duration `yaml:"window"`
}

// FitConfig configures the least-squares fitter.
type FitConfig struct {
	BootstrapSamples int     `yaml:"bootstrap_samples"`
	MaxIterations    int     `yaml:"max_iterations"`
	Tolerance        float64 `yaml:"tolerance"`
	Seed             uint64  `yaml:"seed"`
	Concurrency      int     `yaml:"concurrency"` // 0 selects GOMAXPROCS
}

// DeconvolutionConfig configures iterative deconvolution.
type DeconvolutionConfig struct {
	Iterations  int     `yaml:"iterations"`
	Tolerance   float64 `yaml:"tolerance"`
	Relaxation  float64 `yaml:"relaxation"`
	NonNegative bool    `yaml:"non_negative"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scheduler: SchedulerConfig{Window: 50 * time.Millisecond},
		Fit: FitConfig{
			BootstrapSamples: 100,
			MaxIterations:    500,
			Tolerance:        1e-12,
			Seed:             1,
		},
		Deconvolution: DeconvolutionConfig{
			Iterations:  100,
			Tolerance:   1e-6,
			Relaxation:  1.0,
			NonNegative: true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Scheduler.Window <= 0:
		return ErrInvalidWindow
	case c.Fit.BootstrapSamples < 0:
		return ErrInvalidBootstrap
	case c.Fit.MaxIterations <= 0 || c.Deconvolution.Iterations <= 0:
		return ErrInvalidIterations
	case c.Fit.Tolerance < 0 || c.Deconvolution.Tolerance < 0:
		return ErrInvalidTolerance
	case !(c.Deconvolution.Relaxation > 0 && c.Deconvolution.Relaxation < 2):
		return ErrInvalidRelaxation
	case c.Fit.Concurrency < 0:
		return ErrInvalidConcurrency
	}
	return nil
}

// LoadFile reads path on top of Default. Keys absent from the file keep
// their defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-selected config path
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FindFile returns the configuration file to use:
//  1. explicit, when non-empty and present
//  2. DefaultConfigFile in the working directory
//  3. XDGConfigFile in the XDG config directory
//
// It returns "" when none exists.
func FindFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(Dir(), XDGConfigFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// Dir returns the XDG configuration directory for the tools.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Load resolves the configuration file with FindFile and loads it. An
// explicit path that does not exist is an error; otherwise a missing file
// yields Default.
func Load(explicit string) (Config, error) {
	path := FindFile(explicit)
	if path == "" {
		if explicit != "" {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
		}
		return Default(), nil
	}
	return LoadFile(path)
}
