package watch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumator/internal/scrape"
)

const pageURL = "https://www.linkedin.com/jobs/view/42/"

var fullPage = `<html><body>
	<h1 class="t-24">Go Engineer</h1>
	<a href="/company/acme/">Acme</a>
	<div id="job-details">` + strings.Repeat("Ship reliable backend services every week. ", 3) + `</div>
</body></html>`

const loadingPage = `<html><body><h1 class="t-24">Go Engineer</h1><div id="job-details">Loading...</div></body></html>`

// scriptedSource replays a fixed sequence of snapshots, repeating the last one.
type scriptedSource struct {
	steps []func() (string, error)
	calls int
}

func (s *scriptedSource) Snapshot(_ context.Context) (string, error) {
	i := min(s.calls, len(s.steps)-1)
	s.calls++
	return s.steps[i]()
}

func page(html string) func() (string, error) {
	return func() (string, error) { return html, nil }
}

func fail(msg string) func() (string, error) {
	return func() (string, error) { return "", errors.New(msg) }
}

func TestWatch_StopsWhenComplete(t *testing.T) {
	src := &scriptedSource{steps: []func() (string, error){page(loadingPage), page(loadingPage), page(fullPage)}}

	var attempts []int
	rec, err := Watch(context.Background(), src, pageURL, &Options{
		Interval: time.Millisecond,
		OnRecord: func(attempt int, _ *scrape.JobRecord) { attempts = append(attempts, attempt) },
	})
	require.NoError(t, err)
	assert.True(t, rec.Complete())
	assert.Equal(t, "Acme", rec.Company)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestWatch_FailedAttemptsAreSkipped(t *testing.T) {
	src := &scriptedSource{steps: []func() (string, error){
		fail("target detached"),
		func() (string, error) { panic("half-built DOM") },
		page(fullPage),
	}}

	rec, err := Watch(context.Background(), src, pageURL, &Options{Interval: time.Millisecond})
	require.NoError(t, err)
	assert.True(t, rec.Complete())
	assert.Equal(t, 3, src.calls)
}

func TestWatch_MaxAttemptsReturnsBest(t *testing.T) {
	src := &scriptedSource{steps: []func() (string, error){page(loadingPage), fail("gone")}}

	rec, err := Watch(context.Background(), src, pageURL, &Options{Interval: time.Millisecond, MaxAttempts: 3})
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", rec.Title)
	assert.Empty(t, rec.Description)
	assert.Equal(t, 3, src.calls)
}

func TestWatch_NoSnapshot(t *testing.T) {
	src := &scriptedSource{steps: []func() (string, error){fail("no browser")}}

	_, err := Watch(context.Background(), src, pageURL, &Options{Interval: time.Millisecond, MaxAttempts: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Contains(t, err.Error(), "no browser")
}

func TestWatch_ContextCancel(t *testing.T) {
	src := &scriptedSource{steps: []func() (string, error){page(loadingPage)}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	rec, err := Watch(ctx, src, pageURL, &Options{Interval: 5 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", rec.Title)
	assert.GreaterOrEqual(t, src.calls, 1)
}
