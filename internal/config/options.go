package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jonathan/resumator/internal/backend"
	"github.com/jonathan/resumator/internal/fetch"
	"github.com/jonathan/resumator/internal/ingestion"
	"github.com/jonathan/resumator/internal/scrape"
	"github.com/jonathan/resumator/internal/watch"
)

// ScrapeOptions maps the extraction section onto extractor options, merging any
// locators file over the built-in tables.
func (c *Config) ScrapeOptions() (*scrape.Options, error) {
	e := c.Extraction
	opts := &scrape.Options{
		Trace:                e.Trace,
		MinDescriptionLength: e.MinDescriptionLength,
		HeuristicBlockLength: e.HeuristicBlockLength,
		BodyTextLimit:        e.BodyTextLimit,
		BrandDenylist:        e.BrandDenylist,
		TitleSeparators:      e.TitleSeparators,
	}
	if e.LocatorsFile != "" {
		locators, err := LoadLocators(e.LocatorsFile)
		if err != nil {
			return nil, err
		}
		opts.Locators = locators
	}
	return opts, nil
}

// LoadLocators reads per-platform locator chains from a YAML or JSON file and
// returns the built-in tables with those platforms replaced.
func LoadLocators(path string) (map[scrape.Platform]scrape.LocatorSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locators file %s: %w", path, err)
	}

	var overrides map[scrape.Platform]scrape.LocatorSpec
	if err := decode(path, data, &overrides); err != nil {
		return nil, err
	}

	locators := scrape.DefaultLocators()
	for platform, spec := range overrides {
		if !platform.Known() {
			return nil, fmt.Errorf("locators file %s: unknown platform %q", path, platform)
		}
		for _, f := range scrape.Fields {
			for _, loc := range spec.For(f) {
				if (loc.Selector == "") == (loc.Heuristic == "") {
					return nil, fmt.Errorf("locators file %s: %s %s locator must set exactly one of selector or heuristic", path, platform, f)
				}
			}
		}
		locators[platform] = spec
	}
	return locators, nil
}

// FetchOptions maps the fetch section onto HTTP fetch options. A positive request
// rate installs a per-host limiter.
func (c *Config) FetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if c.Fetch.TimeoutSeconds > 0 {
		opts.Timeout = seconds(c.Fetch.TimeoutSeconds)
	}
	if c.Fetch.UserAgent != "" {
		opts.UserAgent = c.Fetch.UserAgent
	}
	if c.Fetch.RequestsPerSecond > 0 {
		opts.Limiter = fetch.NewHostLimiter(c.Fetch.RequestsPerSecond, c.Fetch.Burst)
	}
	return opts
}

// BrowserOptions maps the fetch section onto headless browser options.
func (c *Config) BrowserOptions() *fetch.BrowserOptions {
	opts := fetch.DefaultBrowserOptions()
	if c.Fetch.BrowserTimeoutSeconds > 0 {
		opts.Timeout = seconds(c.Fetch.BrowserTimeoutSeconds)
	}
	if c.Fetch.SettleDelayMillis > 0 {
		opts.SettleDelay = time.Duration(c.Fetch.SettleDelayMillis) * time.Millisecond
	}
	if c.Fetch.UserAgent != "" {
		opts.UserAgent = c.Fetch.UserAgent
	}
	return opts
}

// IngestionOptions combines the extraction and fetch sections.
func (c *Config) IngestionOptions() (*ingestion.Options, error) {
	scrapeOpts, err := c.ScrapeOptions()
	if err != nil {
		return nil, err
	}
	return &ingestion.Options{
		Scrape:      scrapeOpts,
		Fetch:       c.FetchOptions(),
		Browser:     c.BrowserOptions(),
		UseBrowser:  c.Fetch.UseBrowser,
		BrowserOnly: c.Fetch.BrowserOnly,
	}, nil
}

// WatchOptions maps the watch section; scrapeOpts is shared with other commands.
func (c *Config) WatchOptions(scrapeOpts *scrape.Options) *watch.Options {
	opts := &watch.Options{
		MaxAttempts: c.Watch.MaxAttempts,
		Scrape:      scrapeOpts,
	}
	if c.Watch.IntervalSeconds > 0 {
		opts.Interval = seconds(c.Watch.IntervalSeconds)
	}
	return opts
}

// BackendClient creates a client for the configured backend.
func (c *Config) BackendClient() *backend.Client {
	return backend.NewClient(c.Backend.URL, seconds(c.Backend.TimeoutSeconds))
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
