// Package ingestion turns a job-posting URL or saved HTML file into a job record
// plus metadata about how it was obtained.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/resumator/internal/fetch"
	"github.com/jonathan/resumator/internal/scrape"
)

var (
	// ErrHTTPRequestFailed is returned when HTTP request fails
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrBrowserFailed is returned when headless rendering fails
	ErrBrowserFailed = errors.New("browser rendering failed")
	// ErrExtractionFailed is returned when the snapshot cannot be parsed
	ErrExtractionFailed = errors.New("extraction failed")
)

// render is swapped out in tests so they do not need Chrome.
var render = fetch.Render

// Options configures ingestion.
type Options struct {
	Scrape  *scrape.Options
	Fetch   *fetch.Options
	Browser *fetch.BrowserOptions
	// UseBrowser re-renders the page headlessly when the HTTP snapshot leaves the
	// description empty, which is typical for client-rendered job boards.
	UseBrowser bool
	// BrowserOnly skips the HTTP fetch entirely.
	BrowserOnly bool
}

// FromURL fetches a job posting and extracts a record from it.
func FromURL(ctx context.Context, urlStr string, opts *Options) (*scrape.JobRecord, *Metadata, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := log.With().Str("url", urlStr).Str("platform", string(scrape.Classify(urlStr))).Logger()

	if opts.BrowserOnly {
		return fromBrowser(ctx, urlStr, opts)
	}

	result, err := fetch.URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	logger.Debug().Int("bytes", len(result.HTML)).Msg("fetched HTML")

	rec, err := scrape.ExtractHTML(strings.NewReader(result.HTML), urlStr, opts.Scrape)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	logger.Debug().Strs("missing", fieldNames(rec.Missing())).Msg("extracted from HTTP snapshot")

	if opts.UseBrowser && rec.Description == "" {
		logger.Debug().Msg("description missing, falling back to browser rendering")
		browserRec, meta, err := fromBrowser(ctx, urlStr, opts)
		if err == nil {
			return browserRec, meta, nil
		}
		logger.Warn().Err(err).Msg("browser rendering failed, using HTTP snapshot")
	}

	meta := NewMetadata(rec, SourceHTTP)
	meta.HTTPStatus = result.StatusCode
	return rec, meta, nil
}

func fromBrowser(ctx context.Context, urlStr string, opts *Options) (*scrape.JobRecord, *Metadata, error) {
	html, err := render(ctx, urlStr, opts.Browser)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBrowserFailed, err)
	}
	rec, err := scrape.ExtractHTML(strings.NewReader(html), urlStr, opts.Scrape)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return rec, NewMetadata(rec, SourceBrowser), nil
}

func fieldNames(fields []scrape.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}
