package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/mahyarmirrashed/dotignore/pkg/dotignore"
)

// DefaultConfigFilename is the config file name inside the dotignore config directory.
const DefaultConfigFilename = "config.yaml"

// Config holds the configuration for the CLI and the watcher.
type Config struct {
	Root          string        `yaml:"root" toml:"root"`                   // Directory queries and watching start from
	IgnoreFile    string        `yaml:"ignore_file" toml:"ignore_file"`     // Ignore file name searched for upwards from Root
	Exclude       []string      `yaml:"exclude" toml:"exclude"`             // Extra rules evaluated after the ignore file
	LogLevel      string        `yaml:"log_level" toml:"log_level"`         // Logging level: debug, info, warn, error
	Daemonize     bool          `yaml:"daemonize" toml:"daemonize"`         // If true, watch runs as a daemon
	Delay         time.Duration `yaml:"delay" toml:"delay"`                 // Time before reporting created files
	Notifications bool          `yaml:"notifications" toml:"notifications"` // If true, send desktop notifications
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Root:       ".",
		IgnoreFile: dotignore.DefaultFilename,
		LogLevel:   "info",
	}
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "dotignore", DefaultConfigFilename)
}

// LoadConfig reads a config file. Files ending in .toml are decoded as TOML,
// anything else as YAML. Unset fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values that cannot be fixed up with a default.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.Delay < 0 {
		return fmt.Errorf("invalid delay: %s", c.Delay)
	}
	if strings.ContainsRune(c.IgnoreFile, filepath.Separator) {
		return fmt.Errorf("ignore file must be a file name, got %q", c.IgnoreFile)
	}
	return nil
}
