// Package config loads the agrilink configuration from YAML on top of the
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"agrilink/pkg/netconfig"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPrimaryOrigin    = "http://10.100.155.236:8000"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultProbeTimeout     = 5 * time.Second
	DefaultStatePath        = "agrilink.db"
	DefaultListenAddr       = "127.0.0.1:8090"
	DefaultGracefulShutdown = 10 * time.Second
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all agrilink settings.
type Config struct {
	// PrimaryOrigin is the online origin; offline mode uses its /hybrid variant.
	PrimaryOrigin string `yaml:"primary_origin"`

	// Candidates are probed in this order when looking for a reachable backend.
	Candidates []string `yaml:"candidates"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`

	// StatePath is the SQLite file backing the local key-value store.
	StatePath string `yaml:"state_path"`

	ListenAddr       string        `yaml:"listen_addr"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	Debug            bool          `yaml:"debug"`

	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig configures the opt-in retry policy used for rate-limited calls.
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	WaitMin           time.Duration `yaml:"wait_min"`
	WaitMax           time.Duration `yaml:"wait_max"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PrimaryOrigin: DefaultPrimaryOrigin,
		Candidates: []string{
			DefaultPrimaryOrigin,
			"http://10.0.2.2:8000",
			"http://localhost:8000",
		},
		RequestTimeout:   DefaultRequestTimeout,
		ProbeTimeout:     DefaultProbeTimeout,
		StatePath:        DefaultStatePath,
		ListenAddr:       DefaultListenAddr,
		GracefulShutdown: DefaultGracefulShutdown,
		Retry: RetryConfig{
			MaxAttempts: 2,
			WaitMin:     1 * time.Second,
			WaitMax:     30 * time.Second,
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Validate checks origins and timeouts.
func (c *Config) Validate() error {
	if err := netconfig.ValidateOrigin(c.PrimaryOrigin); err != nil {
		return fmt.Errorf("%w: primary_origin: %w", ErrInvalidConfig, err)
	}
	if len(c.Candidates) == 0 {
		return fmt.Errorf("%w: candidates must not be empty", ErrInvalidConfig)
	}
	for i, candidate := range c.Candidates {
		if err := netconfig.ValidateOrigin(candidate); err != nil {
			return fmt.Errorf("%w: candidates[%d]: %w", ErrInvalidConfig, i, err)
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("%w: probe_timeout must be positive", ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be at least 1", ErrInvalidConfig)
	}
	return nil
}
