package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/resumator/internal/scrape"
)

// FromFile extracts a record from a saved HTML page. pageURL drives platform
// classification since a file carries no URL of its own.
func FromFile(path string, pageURL string, opts *Options) (*scrape.JobRecord, *Metadata, error) {
	if opts == nil {
		opts = &Options{}
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return fromReader(f, pageURL, SourceFile, opts)
}

// FromHTML extracts a record from HTML supplied by the caller, such as a page
// captured by a browser extension.
func FromHTML(html string, pageURL string, opts *Options) (*scrape.JobRecord, *Metadata, error) {
	if opts == nil {
		opts = &Options{}
	}
	return fromReader(strings.NewReader(html), pageURL, SourceInline, opts)
}

func fromReader(r io.Reader, pageURL, source string, opts *Options) (*scrape.JobRecord, *Metadata, error) {
	rec, err := scrape.ExtractHTML(r, pageURL, opts.Scrape)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return rec, NewMetadata(rec, source), nil
}

// Output file names written by WriteOutput.
const (
	RecordFile   = "job_record.json"
	MetadataFile = "job_record.meta.json"
)

// WriteOutput writes the record and its metadata to outDir.
func WriteOutput(outDir string, rec *scrape.JobRecord, metadata *Metadata) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	recJSON, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, RecordFile), recJSON, 0644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}

	metaJSON, err := metadata.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, MetadataFile), metaJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}
