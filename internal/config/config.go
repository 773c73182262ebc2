// Package config loads workbench configuration from environment variables,
// with an optional YAML overlay file for deployment-managed settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development" yaml:"environment"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" yaml:"log_level"`

	// Management API
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8090" yaml:"listen_addr"`
	AuthMode    string `envconfig:"AUTH_MODE" default:"api-key" yaml:"auth_mode"` // "api-key", "jwt", "none"
	APIKey      string `envconfig:"API_KEY" yaml:"api_key"`
	JWTSecret   string `envconfig:"JWT_SECRET" yaml:"jwt_secret"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" yaml:"cors_origins"`

	// Type-checking worker
	WorkerURL     string        `envconfig:"WORKER_URL" default:"ws://localhost:9400/ws/worker" yaml:"worker_url"`
	WorkerToken   string        `envconfig:"WORKER_TOKEN" yaml:"worker_token"`
	WorkerTimeout time.Duration `envconfig:"WORKER_TIMEOUT" default:"60s" yaml:"-"`

	// Bundle fetch
	// Timeouts come from the environment only.
	FetchTimeout    time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s" yaml:"-"`
	FetchRetries    int           `envconfig:"FETCH_RETRIES" default:"3" yaml:"fetch_retries"`
	BundleCacheSize int           `envconfig:"BUNDLE_CACHE_SIZE" default:"8" yaml:"bundle_cache_size"`

	// Optional startup bundle: loaded into the workspace at boot when set.
	BundleLocator string `envconfig:"BUNDLE_LOCATOR" yaml:"bundle_locator"`
}

// AuthEnabled returns true unless auth mode is "none".
func (c *Config) AuthEnabled() bool {
	return !strings.EqualFold(c.AuthMode, "none")
}

// JWTEnabled returns true when JWT auth is configured.
func (c *Config) JWTEnabled() bool {
	return strings.EqualFold(c.AuthMode, "jwt") && c.JWTSecret != ""
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch strings.ToLower(c.AuthMode) {
	case "none":
	case "api-key":
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_MODE=api-key requires API_KEY")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.AuthMode)
	}
	if c.BundleCacheSize < 1 {
		return fmt.Errorf("BUNDLE_CACHE_SIZE must be >= 1")
	}
	return nil
}

// Load reads configuration from environment variables. When WORKBENCH_CONFIG
// points at a YAML file, fields present in the file override the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("WORKBENCH", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if path := os.Getenv("WORKBENCH_CONFIG"); path != "" {
		if err := applyFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyFile overlays a YAML file onto cfg. Only keys present in the file are
// touched, so env-provided and default values survive for everything else.
func applyFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
