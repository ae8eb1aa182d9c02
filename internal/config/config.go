// Package config provides configuration management for paylink.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/paylink/internal/fileutil"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Home     string         `yaml:"home"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Callback CallbackConfig `yaml:"callback"`
	Payment  PaymentConfig  `yaml:"payment"`
	Server   ServerConfig   `yaml:"server"`
	Tracking TrackingConfig `yaml:"tracking"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CatalogConfig defines where the wallet catalog is loaded from.
// An empty File selects the built-in catalog.
type CatalogConfig struct {
	File string `yaml:"file"`
}

// CallbackConfig defines settings for the payment callback client.
type CallbackConfig struct {
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	RatePerSecond    float64 `yaml:"rate_per_second"`
	Burst            int     `yaml:"burst"`
	MaxResponseBytes int64   `yaml:"max_response_bytes"`
}

// PaymentConfig defines settings for fetching pay requests from payment links.
type PaymentConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// RetryAttempts bounds attempts on network failures and 429/5xx answers.
	RetryAttempts int `yaml:"retry_attempts"`
}

// ServerConfig defines the HTTP server settings.
type ServerConfig struct {
	Listen                 string `yaml:"listen"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// TrackingConfig defines page-view tracking settings.
type TrackingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the paylink home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetCatalogFile returns the configured wallet catalog file, if any.
func (c *Config) GetCatalogFile() string {
	return c.Catalog.File
}

// CallbackTimeout returns the callback client timeout.
func (c *Config) CallbackTimeout() time.Duration {
	return seconds(c.Callback.TimeoutSeconds, DefaultCallbackTimeoutSeconds)
}

// PaymentTimeout returns the payment-link client timeout.
func (c *Config) PaymentTimeout() time.Duration {
	return seconds(c.Payment.TimeoutSeconds, DefaultPaymentTimeoutSeconds)
}

// ShutdownTimeout returns how long the server waits for in-flight requests.
func (c *Config) ShutdownTimeout() time.Duration {
	return seconds(c.Server.ShutdownTimeoutSeconds, DefaultShutdownTimeoutSeconds)
}

// GetListenAddr returns the HTTP listen address.
func (c *Config) GetListenAddr() string {
	return c.Server.Listen
}

// TrackingEnabled reports whether page-view tracking is on.
func (c *Config) TrackingEnabled() bool {
	return c.Tracking.Enabled
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default paylink home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".paylink"
	}
	return filepath.Join(home, ".paylink")
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
