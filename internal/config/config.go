// Package config provides configuration management for the finfeed tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoProviders      = errors.New("providers must name at least one news provider")
	ErrInvalidLimit     = errors.New("limits must be at least 1")
	ErrInvalidLogLevel  = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat = errors.New("logging.format must be 'text' or 'json'")
	ErrUnknownKey       = errors.New("unknown configuration key")
)

// Defaults applied when the configuration file is absent or partial.
const (
	DefaultProviders       = "newsapi,gnews"
	DefaultLanguage        = "en"
	DefaultCountry         = "us"
	DefaultNewsAPILimit    = 5
	DefaultGNewsLimit      = 10
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultSummarizerModel = "gpt-4o"
)

// Config represents the complete finfeed configuration.
type Config struct {
	Providers    string           `yaml:"providers"`
	RawDir       string           `yaml:"raw_dir"`
	ProcessedDir string           `yaml:"processed_dir"`
	Language     string           `yaml:"language"`
	Country      string           `yaml:"country"`
	Limits       LimitsConfig     `yaml:"limits"`
	Logging      LoggingConfig    `yaml:"logging"`
	Summarizer   SummarizerConfig `yaml:"summarizer"`
}

// LimitsConfig caps how many articles one fetch requests from each provider.
type LimitsConfig struct {
	NewsAPI int `yaml:"newsapi"`
	GNews   int `yaml:"gnews"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SummarizerConfig selects the model used for article summaries.
type SummarizerConfig struct {
	Model string `yaml:"model"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Providers: DefaultProviders,
		Language:  DefaultLanguage,
		Country:   DefaultCountry,
		Limits: LimitsConfig{
			NewsAPI: DefaultNewsAPILimit,
			GNews:   DefaultGNewsLimit,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Summarizer: SummarizerConfig{
			Model: DefaultSummarizerModel,
		},
	}
}

// DefaultPath returns the configuration file location,
// $XDG_CONFIG_HOME/finfeed/config.yaml, falling back to
// ~/.config/finfeed/config.yaml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "finfeed", "config.yaml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(home, ".config", "finfeed", "config.yaml"), nil
}

// LoadConfig loads configuration from a YAML file. A missing file is not an
// error; it yields the defaults. A present file is parsed over the defaults
// and validated.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file, creating the parent
// directory when needed.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.ProviderNames()) == 0 {
		return ErrNoProviders
	}

	if c.Limits.NewsAPI < 1 {
		return fmt.Errorf("%w: limits.newsapi is %d", ErrInvalidLimit, c.Limits.NewsAPI)
	}

	if c.Limits.GNews < 1 {
		return fmt.Errorf("%w: limits.gnews is %d", ErrInvalidLimit, c.Limits.GNews)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// ProviderNames returns the default fetch providers, split out of the
// comma-separated providers value.
func (c *Config) ProviderNames() []string {
	var names []string

	for _, name := range strings.Split(c.Providers, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	return names
}

// Keys lists the keys `config get` and `config set` accept, in display order.
func Keys() []string {
	return []string{
		"providers",
		"raw_dir",
		"processed_dir",
		"language",
		"country",
		"limits.newsapi",
		"limits.gnews",
		"logging.level",
		"logging.format",
		"summarizer.model",
	}
}

// Get returns the value stored under a dotted key name.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "providers":
		return c.Providers, nil
	case "raw_dir":
		return c.RawDir, nil
	case "processed_dir":
		return c.ProcessedDir, nil
	case "language":
		return c.Language, nil
	case "country":
		return c.Country, nil
	case "limits.newsapi":
		return strconv.Itoa(c.Limits.NewsAPI), nil
	case "limits.gnews":
		return strconv.Itoa(c.Limits.GNews), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "summarizer.model":
		return c.Summarizer.Model, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set updates the value under a dotted key name and revalidates the
// configuration. The caller decides whether to persist the result.
func (c *Config) Set(key, value string) error {
	switch key {
	case "providers":
		c.Providers = value
	case "raw_dir":
		c.RawDir = value
	case "processed_dir":
		c.ProcessedDir = value
	case "language":
		c.Language = value
	case "country":
		c.Country = value
	case "limits.newsapi", "limits.gnews":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s requires an integer value: %w", key, err)
		}

		if key == "limits.newsapi" {
			c.Limits.NewsAPI = n
		} else {
			c.Limits.GNews = n
		}
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "summarizer.model":
		c.Summarizer.Model = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	return c.Validate()
}
