// Package watch re-runs extraction against a changing page until every field is
// resolved. Each attempt is independent; a failed attempt only costs one tick.
package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/resumator/internal/scrape"
)

// DefaultInterval is the polling cadence.
const DefaultInterval = 2 * time.Second

// ErrNoSnapshot is returned when no attempt produced a record before the context ended.
var ErrNoSnapshot = errors.New("no snapshot could be extracted")

// Source yields the current HTML of a page. Implemented by fetch.Tab and
// fetch.HTTPSource.
type Source interface {
	Snapshot(ctx context.Context) (string, error)
}

// Options configures a watch.
type Options struct {
	Interval time.Duration
	// MaxAttempts stops polling after this many attempts; 0 polls until ctx ends.
	MaxAttempts int
	Scrape      *scrape.Options
	// OnRecord is called after every successful attempt.
	OnRecord func(attempt int, rec *scrape.JobRecord)
}

// Watch polls src and extracts a record from every snapshot. It returns as soon as
// a record is complete, otherwise the best record seen when polling stops. Best
// means the most resolved fields, later attempts winning ties.
func Watch(ctx context.Context, src Source, pageURL string, opts *Options) (*scrape.JobRecord, error) {
	if opts == nil {
		opts = &Options{}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := log.With().Str("url", pageURL).Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var best *scrape.JobRecord
	var lastErr error
	for attempt := 1; ; attempt++ {
		rec, err := attemptOnce(ctx, src, pageURL, opts.Scrape)
		if err != nil {
			// The page may be mid-transition; try again next tick.
			lastErr = err
			logger.Debug().Err(err).Int("attempt", attempt).Msg("extraction attempt failed")
		} else {
			if opts.OnRecord != nil {
				opts.OnRecord(attempt, rec)
			}
			if best == nil || len(rec.Missing()) <= len(best.Missing()) {
				best = rec
			}
			if rec.Complete() {
				logger.Debug().Int("attempt", attempt).Msg("record complete")
				return rec, nil
			}
		}

		if opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return finish(best, lastErr, ctx.Err())
		case <-ticker.C:
		}
	}
	return finish(best, lastErr, nil)
}

func finish(best *scrape.JobRecord, lastErr, ctxErr error) (*scrape.JobRecord, error) {
	if best != nil {
		return best, nil
	}
	cause := errors.Join(lastErr, ctxErr)
	if cause == nil {
		return nil, ErrNoSnapshot
	}
	return nil, fmt.Errorf("%w: %w", ErrNoSnapshot, cause)
}

// attemptOnce takes one snapshot and extracts from it. A panic anywhere in the
// attempt is reported as an error so the next tick still runs.
func attemptOnce(ctx context.Context, src Source, pageURL string, opts *scrape.Options) (rec *scrape.JobRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("extraction panicked: %v", r)
		}
	}()
	html, err := src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return scrape.ExtractHTML(strings.NewReader(html), pageURL, opts)
}
