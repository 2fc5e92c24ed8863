package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resumator/internal/ingestion"
	"github.com/jonathan/resumator/internal/schemas"
	"github.com/jonathan/resumator/internal/scrape"
	"github.com/jonathan/resumator/internal/store"
)

var extractCmd = &cobra.Command{
	Use:   "extract [url...]",
	Short: "Extract job records from posting URLs or a saved HTML file",
	Long: "Fetch each URL (or read --file), extract title, company and description, and print the " +
		"records as JSON. Several URLs are fetched concurrently.",
	RunE: runExtract,
}

var (
	extractFile        string
	extractPageURL     string
	extractOutDir      string
	extractTrace       bool
	extractBrowser     bool
	extractBrowserOnly bool
	extractSave        bool
	extractValidate    bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Path to a saved HTML page")
	extractCmd.Flags().StringVar(&extractPageURL, "page-url", "", "Original URL of --file, used for platform detection")
	extractCmd.Flags().StringVarP(&extractOutDir, "out", "o", "", "Write job_record.json and metadata to this directory")
	extractCmd.Flags().BoolVar(&extractTrace, "trace", false, "Record which strategy resolved each field")
	extractCmd.Flags().BoolVar(&extractBrowser, "browser", false, "Fall back to a headless browser when the description is missing")
	extractCmd.Flags().BoolVar(&extractBrowserOnly, "browser-only", false, "Render with a headless browser only")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "Upsert records into the database")
	extractCmd.Flags().BoolVar(&extractValidate, "validate", false, "Validate records against the job record schema")

	rootCmd.AddCommand(extractCmd)
}

// extraction is one extracted record with its source.
type extraction struct {
	Record   *scrape.JobRecord
	Metadata *ingestion.Metadata
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractFile == "" && len(args) == 0 {
		return fmt.Errorf("either --file or at least one URL must be provided")
	}
	if extractFile != "" && len(args) > 0 {
		return fmt.Errorf("--file and URLs are mutually exclusive; provide only one")
	}

	opts, err := extractOptions()
	if err != nil {
		return err
	}

	var results []extraction
	if extractFile != "" {
		rec, meta, err := ingestion.FromFile(extractFile, extractPageURL, opts)
		if err != nil {
			return err
		}
		results = []extraction{{Record: rec, Metadata: meta}}
	} else {
		results, err = extractURLs(cmd.Context(), args, opts, cfg.Fetch.Concurrency)
		if err != nil {
			return err
		}
	}

	if extractTrace {
		for _, r := range results {
			printTrace(cmd.ErrOrStderr(), r.Record)
		}
	}
	if extractValidate {
		for _, r := range results {
			if err := schemas.ValidateValue(schemas.JobRecordSchema, r.Record); err != nil {
				return fmt.Errorf("record for %s failed validation: %w", r.Record.URL, err)
			}
		}
	}
	if extractOutDir != "" {
		if err := writeExtractions(extractOutDir, results); err != nil {
			return err
		}
	}
	if extractSave {
		if err := saveRecords(cmd.Context(), results); err != nil {
			return err
		}
	}
	return printExtractions(cmd.OutOrStdout(), results)
}

// extractOptions layers the extract flags over the configured options. Flags can
// only switch browser modes on; a config that asks for browser-only rendering
// keeps it.
func extractOptions() (*ingestion.Options, error) {
	opts, err := cfg.IngestionOptions()
	if err != nil {
		return nil, err
	}
	if extractTrace {
		opts.Scrape.Trace = true
	}
	if extractBrowser || extractBrowserOnly {
		opts.UseBrowser = true
	}
	if extractBrowserOnly {
		opts.BrowserOnly = true
	}
	return opts, nil
}

// extractURLs fetches and extracts every URL with at most concurrency requests in
// flight. Results keep the order of urls; the first failure cancels the rest.
func extractURLs(ctx context.Context, urls []string, opts *ingestion.Options, concurrency int) ([]extraction, error) {
	results := make([]extraction, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, u := range urls {
		g.Go(func() error {
			rec, meta, err := ingestion.FromURL(ctx, u, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", u, err)
			}
			if missing := rec.Missing(); len(missing) > 0 {
				log.Warn().Str("url", u).Interface("missing", missing).Msg("record incomplete")
			}
			results[i] = extraction{Record: rec, Metadata: meta}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeExtractions writes a single record directly into outDir and several
// records into one subdirectory each, named after a hash of the URL.
func writeExtractions(outDir string, results []extraction) error {
	if len(results) == 1 {
		return ingestion.WriteOutput(outDir, results[0].Record, results[0].Metadata)
	}
	for _, r := range results {
		dir := filepath.Join(outDir, urlDirName(r.Record.URL))
		if err := ingestion.WriteOutput(dir, r.Record, r.Metadata); err != nil {
			return err
		}
	}
	return nil
}

func urlDirName(u string) string {
	sum := sha256.Sum256([]byte(u))
	return hex.EncodeToString(sum[:])[:12]
}

func saveRecords(ctx context.Context, results []extraction) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("--save requires database_url in config or the DATABASE_URL environment variable")
	}
	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	for _, r := range results {
		if r.Record.URL == "" {
			log.Warn().Msg("skipping record without URL")
			continue
		}
		stored, err := db.UpsertRecord(ctx, r.Record)
		if err != nil {
			return err
		}
		log.Info().Str("id", stored.ID.String()).Str("url", stored.URL).Msg("record saved")
	}
	return nil
}

func printExtractions(w io.Writer, results []extraction) error {
	var v any = results[0].Record
	if len(results) > 1 {
		records := make([]*scrape.JobRecord, len(results))
		for i, r := range results {
			records[i] = r.Record
		}
		v = records
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printTrace writes a record's trace lines under a header naming its URL.
func printTrace(w io.Writer, rec *scrape.JobRecord) {
	if len(rec.Trace) == 0 {
		return
	}
	fmt.Fprintf(w, "trace for %s\n  %s\n", rec.URL, strings.Join(rec.Trace, "\n  "))
}
