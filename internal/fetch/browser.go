package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// DefaultSettleDelay is how long a rendered page is given to run its scripts
// before the first snapshot.
const DefaultSettleDelay = 3 * time.Second

// BrowserOptions configures headless rendering.
type BrowserOptions struct {
	Timeout     time.Duration
	SettleDelay time.Duration
	UserAgent   string
}

// DefaultBrowserOptions returns sensible defaults for rendering.
func DefaultBrowserOptions() *BrowserOptions {
	return &BrowserOptions{
		Timeout:     DefaultTimeout,
		SettleDelay: DefaultSettleDelay,
		UserAgent:   DefaultUserAgent,
	}
}

// Tab is a headless browser tab kept open on one page. Its DOM keeps changing as
// the page loads content, and every Snapshot reads the current state.
type Tab struct {
	url    string
	ctx    context.Context
	cancel context.CancelFunc
}

// OpenTab starts a headless browser, navigates to url and waits for the body.
// Requires Chrome/Chromium to be installed on the system.
func OpenTab(ctx context.Context, url string, opts *BrowserOptions) (*Tab, error) {
	if opts == nil {
		opts = DefaultBrowserOptions()
	}
	log.Debug().Str("url", url).Msg("starting headless browser")

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	tab := &Tab{
		url: url,
		ctx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	navCtx, cancelNav := context.WithTimeout(browserCtx, timeout)
	defer cancelNav()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(opts.SettleDelay),
	)
	if err != nil {
		tab.Close()
		return nil, &Error{URL: url, Message: "browser navigation failed", Cause: err, Retryable: true}
	}
	return tab, nil
}

// Snapshot returns the tab's current outer HTML.
func (t *Tab) Snapshot(ctx context.Context) (string, error) {
	// chromedp actions must run on the tab's context; ctx only bounds the wait.
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to snapshot %s: %w", t.url, err)
	}
	log.Debug().Str("url", t.url).Int("bytes", len(html)).Msg("browser snapshot")
	return html, nil
}

// Close shuts the browser down.
func (t *Tab) Close() {
	t.cancel()
}

// Render opens a tab, takes one snapshot and closes it.
func Render(ctx context.Context, url string, opts *BrowserOptions) (string, error) {
	tab, err := OpenTab(ctx, url, opts)
	if err != nil {
		return "", err
	}
	defer tab.Close()
	return tab.Snapshot(ctx)
}
