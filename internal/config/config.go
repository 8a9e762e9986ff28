// Package config provides unified configuration loading for tsimport.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JulieCB/tvb-root/internal/logging"
)

// DefaultSamplingRate is the sampling rate in Hz used when none is given.
const DefaultSamplingRate = 100.0

// TsimportConfig contains all tsimport configuration settings.
type TsimportConfig struct {
	// Logging contains settings for operational and import-event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Importer contains defaults applied to import requests.
	Importer ImporterConfig `json:"importer" yaml:"importer"`

	// Storage locates the index and the containers.
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// LoggingConfig configures tsimport's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "error", "warn", "info" (default), "debug" or "trace".
	// "debug" and "trace" enable the import event log at .tsimport/imports.jsonl.
	Level string `json:"level" yaml:"level"`
}

// ImporterConfig holds import defaults.
type ImporterConfig struct {
	// DefaultSamplingRate is used when a request gives no sampling rate, in Hz.
	DefaultSamplingRate float64 `json:"default_sampling_rate" yaml:"default_sampling_rate"`
}

// StorageConfig locates persisted data.
type StorageConfig struct {
	// Dir overrides the data directory. Empty means <root>/.tsimport.
	// Supports ${VAR} syntax.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Default returns a TsimportConfig with sensible defaults.
func Default() *TsimportConfig {
	return &TsimportConfig{
		Logging: LoggingConfig{
			Level: "info",
		},
		Importer: ImporterConfig{
			DefaultSamplingRate: DefaultSamplingRate,
		},
	}
}

// DefaultPath returns ~/.tsimport/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tsimport", "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.tsimport/config.yaml -> environment variables
func Load() (*TsimportConfig, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*TsimportConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Storage.Dir = expandEnvVars(config.Storage.Dir)

	return config, nil
}

// Save writes the configuration to path, creating its directory.
func (c *TsimportConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *TsimportConfig) Validate() error {
	if c.Importer.DefaultSamplingRate <= 0 {
		return fmt.Errorf("default_sampling_rate must be positive, got %g", c.Importer.DefaultSamplingRate)
	}

	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// DataDir resolves the data directory for a project root.
func (c *TsimportConfig) DataDir(root string) string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return filepath.Join(root, ".tsimport")
}

// Keys lists the settable dot-notation keys.
func Keys() []string {
	return []string{
		"logging.level",
		"importer.default_sampling_rate",
		"storage.dir",
	}
}

// Get retrieves a configuration value by dot-notation key.
func (c *TsimportConfig) Get(key string) (any, bool) {
	switch key {
	case "logging.level":
		return c.Logging.Level, true
	case "importer.default_sampling_rate":
		return c.Importer.DefaultSamplingRate, true
	case "storage.dir":
		return c.Storage.Dir, true
	default:
		return nil, false
	}
}

// Set sets a configuration value by dot-notation key and validates the result.
func (c *TsimportConfig) Set(key, value string) error {
	next := *c
	switch key {
	case "logging.level":
		next.Logging.Level = value
	case "importer.default_sampling_rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid sampling rate: %s (must be a number)", value)
		}
		next.Importer.DefaultSamplingRate = f
	case "storage.dir":
		next.Storage.Dir = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *TsimportConfig) {
	if v := os.Getenv("TSIMPORT_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("TSIMPORT_SAMPLING_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Importer.DefaultSamplingRate = f
		}
	}

	if v := os.Getenv("TSIMPORT_STORAGE_DIR"); v != "" {
		config.Storage.Dir = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
