package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumator/internal/scrape"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "resumator.yaml", `
log_level: debug
database_url: postgres://localhost/resumator
extraction:
  trace: true
  min_description_length: 80
  brand_denylist: [LinkedIn, Glassdoor]
fetch:
  timeout_seconds: 10
  requests_per_second: 0.5
  use_browser: true
backend:
  url: http://backend:8000
server:
  port: 9090
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/resumator", cfg.DatabaseURL)
	assert.True(t, cfg.Extraction.Trace)
	assert.Equal(t, 80, cfg.Extraction.MinDescriptionLength)
	assert.Equal(t, []string{"LinkedIn", "Glassdoor"}, cfg.Extraction.BrandDenylist)
	assert.Equal(t, 10, cfg.Fetch.TimeoutSeconds)
	assert.Equal(t, 0.5, cfg.Fetch.RequestsPerSecond)
	assert.True(t, cfg.Fetch.UseBrowser)
	assert.Equal(t, "http://backend:8000", cfg.Backend.URL)
	assert.Equal(t, 9090, cfg.Server.Port)

	// untouched sections keep defaults
	assert.Equal(t, DefaultBurst, cfg.Fetch.Burst)
	assert.Equal(t, DefaultWatchInterval, cfg.Watch.IntervalSeconds)
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, "resumator.json", `{"log_level": "warn", "server": {"port": 7000}}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	bad := writeFile(t, "bad.json", `{"log_level": `)
	_, err = LoadConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"negative threshold", func(c *Config) { c.Extraction.MinDescriptionLength = -1 }, "MinDescriptionLength"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"bad backend url", func(c *Config) { c.Backend.URL = "not a url" }, "URL"},
		{"empty separator", func(c *Config) { c.Extraction.TitleSeparators = []string{" | ", ""} }, "TitleSeparators"},
		{"browser only without browser", func(c *Config) { c.Fetch.BrowserOnly = true }, "browser_only"},
		{"missing locators file", func(c *Config) { c.Extraction.LocatorsFile = "/nonexistent/locators.yaml" }, "locators file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvLogLevel:    "DEBUG",
		EnvTrace:       "true",
		EnvUseBrowser:  "1",
		EnvUserAgent:   "resumator-test",
		EnvRateLimit:   "2.5",
		EnvPort:        "3000",
		EnvDatabaseURL: "postgres://db/test",
		EnvBackendURL:  "http://api:8000",
		EnvAPIKey:      "k",
	}))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Extraction.Trace)
	assert.True(t, cfg.Fetch.UseBrowser)
	assert.Equal(t, "resumator-test", cfg.Fetch.UserAgent)
	assert.Equal(t, 2.5, cfg.Fetch.RequestsPerSecond)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "postgres://db/test", cfg.DatabaseURL)
	assert.Equal(t, "http://api:8000", cfg.Backend.URL)
	assert.Equal(t, "k", cfg.Server.APIKey)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	for _, key := range []string{EnvTrace, EnvUseBrowser, EnvRateLimit, EnvPort} {
		t.Run(key, func(t *testing.T) {
			err := Default().ApplyEnv(envMap(map[string]string{key: "maybe"}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "resumator.yaml", "server:\n  port: 9090\n")
	t.Setenv(EnvPort, "9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestScrapeOptions(t *testing.T) {
	cfg := Default()
	cfg.Extraction.Trace = true
	cfg.Extraction.MinDescriptionLength = 120

	opts, err := cfg.ScrapeOptions()
	require.NoError(t, err)
	assert.True(t, opts.Trace)
	assert.Equal(t, 120, opts.MinDescriptionLength)
	assert.Nil(t, opts.Locators)
}

func TestLoadLocators_MergesOverDefaults(t *testing.T) {
	path := writeFile(t, "locators.yaml", `
indeed:
  title:
    - selector: h1.new-title
  company:
    - selector: .new-company
      min_length: 2
  description:
    - selector: "#new-desc"
`)

	locators, err := LoadLocators(path)
	require.NoError(t, err)

	indeed := locators[scrape.PlatformIndeed]
	require.Len(t, indeed.Title, 1)
	assert.Equal(t, "h1.new-title", indeed.Title[0].Selector)
	assert.Equal(t, 2, indeed.Company[0].MinLength)

	defaults := scrape.DefaultLocators()
	assert.Equal(t, defaults[scrape.PlatformLinkedIn], locators[scrape.PlatformLinkedIn])
	assert.Equal(t, defaults[scrape.PlatformNaukri], locators[scrape.PlatformNaukri])
}

func TestLoadLocators_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unknown platform", "l.yaml", "monster:\n  title:\n    - selector: h1\n", "unknown platform"},
		{"empty locator", "l.json", `{"naukri": {"title": [{}]}}`, "exactly one of selector or heuristic"},
		{"both set", "l.json", `{"naukri": {"title": [{"selector": "h1", "heuristic": "company-link"}]}}`, "exactly one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLocators(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFetchOptions(t *testing.T) {
	cfg := Default()
	cfg.Fetch.TimeoutSeconds = 5
	cfg.Fetch.UserAgent = "ua"

	opts := cfg.FetchOptions()
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, "ua", opts.UserAgent)
	assert.NotNil(t, opts.Limiter)

	cfg.Fetch.RequestsPerSecond = 0
	assert.Nil(t, cfg.FetchOptions().Limiter)
}

func TestBrowserAndWatchOptions(t *testing.T) {
	cfg := Default()
	cfg.Fetch.SettleDelayMillis = 500
	cfg.Watch.MaxAttempts = 3

	browser := cfg.BrowserOptions()
	assert.Equal(t, 500*time.Millisecond, browser.SettleDelay)

	w := cfg.WatchOptions(nil)
	assert.Equal(t, 2*time.Second, w.Interval)
	assert.Equal(t, 3, w.MaxAttempts)
}

func TestIngestionOptions(t *testing.T) {
	cfg := Default()
	cfg.Fetch.UseBrowser = true

	opts, err := cfg.IngestionOptions()
	require.NoError(t, err)
	assert.True(t, opts.UseBrowser)
	assert.NotNil(t, opts.Scrape)
	assert.NotNil(t, opts.Fetch)
	assert.NotNil(t, opts.Browser)
}
