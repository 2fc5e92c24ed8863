package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/resumator/internal/fetch"
	"github.com/jonathan/resumator/internal/ingestion"
	"github.com/jonathan/resumator/internal/scrape"
	"github.com/jonathan/resumator/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <url>",
	Short: "Re-extract a page until every field resolves",
	Long: "Poll a job page and re-run extraction on every snapshot. With --browser the page stays " +
		"open in a headless browser so content loaded by scripts is picked up as it appears.",
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchBrowser     bool
	watchInterval    time.Duration
	watchMaxAttempts int
	watchTrace       bool
	watchOutDir      string
)

func init() {
	watchCmd.Flags().BoolVar(&watchBrowser, "browser", false, "Keep the page open in a headless browser")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Polling interval (default from config)")
	watchCmd.Flags().IntVar(&watchMaxAttempts, "max-attempts", 0, "Stop after this many attempts (default from config, 0 = until interrupted)")
	watchCmd.Flags().BoolVar(&watchTrace, "trace", false, "Record which strategy resolved each field")
	watchCmd.Flags().StringVarP(&watchOutDir, "out", "o", "", "Write the final record to this directory")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	pageURL := args[0]
	ctx := cmd.Context()

	scrapeOpts, err := cfg.ScrapeOptions()
	if err != nil {
		return err
	}
	scrapeOpts.Trace = scrapeOpts.Trace || watchTrace

	opts := cfg.WatchOptions(scrapeOpts)
	if watchInterval > 0 {
		opts.Interval = watchInterval
	}
	if cmd.Flags().Changed("max-attempts") {
		opts.MaxAttempts = watchMaxAttempts
	}
	opts.OnRecord = func(attempt int, rec *scrape.JobRecord) {
		log.Info().
			Int("attempt", attempt).
			Str("title", rec.Title).
			Str("company", rec.Company).
			Int("description_len", len(rec.Description)).
			Interface("missing", rec.Missing()).
			Msg("snapshot extracted")
	}

	var src watch.Source
	source := ingestion.SourceHTTP
	if watchBrowser {
		tab, err := fetch.OpenTab(ctx, pageURL, cfg.BrowserOptions())
		if err != nil {
			return err
		}
		defer tab.Close()
		src = tab
		source = ingestion.SourceBrowser
	} else {
		src = &fetch.HTTPSource{URL: pageURL, Options: cfg.FetchOptions()}
	}

	rec, err := watch.Watch(ctx, src, pageURL, opts)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	if !rec.Complete() {
		log.Warn().Interface("missing", rec.Missing()).Msg("stopped before every field resolved")
	}

	if watchTrace {
		printTrace(cmd.ErrOrStderr(), rec)
	}
	if watchOutDir != "" {
		if err := ingestion.WriteOutput(watchOutDir, rec, ingestion.NewMetadata(rec, source)); err != nil {
			return err
		}
	}
	return printExtractions(cmd.OutOrStdout(), []extraction{{Record: rec}})
}
