// Package config loads cellfind settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the config path.
const EnvConfigPath = "CELLFIND_CONFIG"

// DefaultPath is used when neither a flag nor EnvConfigPath names a file.
const DefaultPath = ".cellfind.yaml"

// Config represents cellfind configuration options
type Config struct {
	// MaxConcurrency caps the number of workbooks scanned at once (0 = 2 x GOMAXPROCS)
	MaxConcurrency int `yaml:"max_concurrency"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// CacheDir holds modern-format copies of legacy workbooks
	CacheDir string `yaml:"cache_dir"`

	// HeaderRow treats the first row of every sheet as a header that is not searched
	HeaderRow bool `yaml:"header_row"`

	// StaleCheck re-prompts for conversion when a cached source has changed
	StaleCheck bool `yaml:"stale_check"`

	// RowMargin is how many rows are kept visible above a located cell
	RowMargin int `yaml:"row_margin"`

	// ColMargin is how many columns are kept visible left of a located cell
	ColMargin int `yaml:"col_margin"`

	// AssumeYes answers every confirmation prompt with yes
	AssumeYes bool `yaml:"assume_yes"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: 0,
		LogLevel:       "info",
		CacheDir:       "./app/cache",
		HeaderRow:      true,
		StaleCheck:     false,
		RowMargin:      10,
		ColMargin:      3,
		AssumeYes:      false,
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath picks the config file: explicit flag value, then
// $CELLFIND_CONFIG, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultPath
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}
	if c.RowMargin < 0 || c.ColMargin < 0 {
		return fmt.Errorf("row_margin and col_margin must be >= 0")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir must not be empty")
	}
	return nil
}

// Workers returns the effective scan pool size.
func (c *Config) Workers() int {
	if c.MaxConcurrency > 0 {
		return c.MaxConcurrency
	}
	return 2 * runtime.GOMAXPROCS(0)
}
