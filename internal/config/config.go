// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration. It can be loaded from a YAML or JSON file;
// every field is optional and unset values keep their defaults.
type Config struct {
	LogLevel    string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`
	Fetch      FetchConfig      `yaml:"fetch" json:"fetch"`
	Watch      WatchConfig      `yaml:"watch" json:"watch"`
	Backend    BackendConfig    `yaml:"backend" json:"backend"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// ExtractionConfig tunes the extractor.
type ExtractionConfig struct {
	Trace                bool     `yaml:"trace" json:"trace"`
	MinDescriptionLength int      `yaml:"min_description_length" json:"min_description_length" validate:"gte=0"`
	HeuristicBlockLength int      `yaml:"heuristic_block_length" json:"heuristic_block_length" validate:"gte=0"`
	BodyTextLimit        int      `yaml:"body_text_limit" json:"body_text_limit" validate:"gte=0"`
	BrandDenylist        []string `yaml:"brand_denylist" json:"brand_denylist" validate:"omitempty,dive,required"`
	TitleSeparators      []string `yaml:"title_separators" json:"title_separators" validate:"omitempty,dive,required"`
	// LocatorsFile points to a YAML or JSON file of per-platform locator chains
	// that replace the built-in ones for the platforms it names.
	LocatorsFile string `yaml:"locators_file" json:"locators_file"`
}

// FetchConfig controls how pages are retrieved.
type FetchConfig struct {
	TimeoutSeconds        int     `yaml:"timeout_seconds" json:"timeout_seconds" validate:"gte=0"`
	UserAgent             string  `yaml:"user_agent" json:"user_agent"`
	RequestsPerSecond     float64 `yaml:"requests_per_second" json:"requests_per_second" validate:"gte=0"`
	Burst                 int     `yaml:"burst" json:"burst" validate:"gte=0"`
	UseBrowser            bool    `yaml:"use_browser" json:"use_browser"`
	BrowserOnly           bool    `yaml:"browser_only" json:"browser_only"`
	BrowserTimeoutSeconds int     `yaml:"browser_timeout_seconds" json:"browser_timeout_seconds" validate:"gte=0"`
	SettleDelayMillis     int     `yaml:"settle_delay_ms" json:"settle_delay_ms" validate:"gte=0"`
	Concurrency           int     `yaml:"concurrency" json:"concurrency" validate:"gte=0,lte=64"`
}

// WatchConfig controls repeated extraction of a live page.
type WatchConfig struct {
	IntervalSeconds int `yaml:"interval_seconds" json:"interval_seconds" validate:"gte=0"`
	MaxAttempts     int `yaml:"max_attempts" json:"max_attempts" validate:"gte=0"`
}

// BackendConfig points at the resume generation backend.
type BackendConfig struct {
	URL            string `yaml:"url" json:"url" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port              int      `yaml:"port" json:"port" validate:"gte=0,lte=65535"`
	APIKey            string   `yaml:"api_key" json:"api_key"`
	AllowedOrigins    []string `yaml:"allowed_origins" json:"allowed_origins"`
	RequestsPerMinute int      `yaml:"requests_per_minute" json:"requests_per_minute" validate:"gte=0"`
	Burst             int      `yaml:"burst" json:"burst" validate:"gte=0"`
}

// Default values applied by Default.
const (
	DefaultLogLevel          = "info"
	DefaultPort              = 8080
	DefaultBackendURL        = "http://localhost:8000"
	DefaultRequestsPerSecond = 1.0
	DefaultBurst             = 2
	DefaultConcurrency       = 4
	DefaultWatchInterval     = 2
	DefaultServerRPM         = 30
	DefaultServerBurst       = 10
)

var validate = validator.New()

// Default returns the configuration used when no file or environment overrides it.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Fetch: FetchConfig{
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             DefaultBurst,
			Concurrency:       DefaultConcurrency,
		},
		Watch:   WatchConfig{IntervalSeconds: DefaultWatchInterval},
		Backend: BackendConfig{URL: DefaultBackendURL},
		Server: ServerConfig{
			Port:              DefaultPort,
			AllowedOrigins:    []string{"*"},
			RequestsPerMinute: DefaultServerRPM,
			Burst:             DefaultServerBurst,
		},
	}
}

// LoadConfig reads a YAML or JSON file over the defaults. The format is chosen by
// extension; anything other than .json is parsed as YAML.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load builds the effective configuration: defaults, then the file at path when
// path is non-empty, then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, out any) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse config JSON: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Fetch.BrowserOnly && !c.Fetch.UseBrowser {
		return fmt.Errorf("config error: 'fetch.browser_only' requires 'fetch.use_browser'")
	}
	if c.Extraction.LocatorsFile != "" {
		if _, err := os.Stat(c.Extraction.LocatorsFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: locators file not found: %s", c.Extraction.LocatorsFile)
		}
	}
	return nil
}
