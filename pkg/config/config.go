// Package config provides configuration management for the downloader. It
// handles loading, validating and saving application settings from a YAML
// file, with sensible defaults when no file exists.
package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schale-tools/baad/pkg/errors"
	"github.com/schale-tools/baad/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Cache settings
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Download settings
	OutputDir     string        `yaml:"output_dir,omitempty"`
	MaxConcurrent int           `yaml:"max_concurrent_downloads"`
	Retries       int           `yaml:"retries"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`

	// Overrides. CatalogURL skips the bootstrap pipeline entirely; Version
	// pins the client version instead of querying the latest-version index.
	CatalogURL string `yaml:"catalog_url,omitempty"`
	Version    string `yaml:"version,omitempty"`

	// Output settings
	LogLevel string `yaml:"log_level"`
}

// Default configuration values.
const (
	DefaultHTTPTimeout   = 60 * time.Second
	DefaultMaxConcurrent = 5
	DefaultRetries       = 3

	yamlIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			HTTPTimeout:   DefaultHTTPTimeout,
			MaxConcurrent: DefaultMaxConcurrent,
			Retries:       DefaultRetries,
			OutputDir:     filepath.Join(".", "output"),
			LogLevel:      "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults, not an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.Wrap(errors.ErrInvalidPath, "config file path cannot be empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "invalid config file path")
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()
	return &config, nil
}

// SaveConfig saves the configuration to a file atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.Wrap(errors.ErrInvalidPath, "config file path cannot be empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "invalid config file path")
	}
	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(yamlIndent)
	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to encode config")
	}
	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to replace config file")
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// GetDefaultConfigPath returns the default location of the config file.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Settings.HTTPTimeout <= 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if c.Settings.Retries <= 0 {
		c.Settings.Retries = defaults.Settings.Retries
	}
	if c.Settings.OutputDir == "" {
		c.Settings.OutputDir = defaults.Settings.OutputDir
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
