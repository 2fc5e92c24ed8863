package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumator/internal/fetch"
	"github.com/jonathan/resumator/internal/scrape"
)

var description = strings.Repeat("Design and operate large scale data pipelines. ", 4)

func stubRender(t *testing.T, html string, err error) *int {
	t.Helper()
	calls := 0
	orig := render
	render = func(_ context.Context, _ string, _ *fetch.BrowserOptions) (string, error) {
		calls++
		return html, err
	}
	t.Cleanup(func() { render = orig })
	return &calls
}

func TestFromURL_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Analyst | Initech</title></head>
			<body><div id="jobDescriptionText">` + description + `</div></body></html>`))
	}))
	defer server.Close()

	rec, meta, err := FromURL(context.Background(), server.URL+"/indeed.com/viewjob", nil)
	require.NoError(t, err)
	assert.Equal(t, scrape.PlatformIndeed, rec.Platform)
	assert.Equal(t, "Analyst", rec.Title)
	assert.Equal(t, "Initech", rec.Company)
	assert.Equal(t, strings.TrimSpace(description), rec.Description)
	assert.Equal(t, SourceHTTP, meta.Source)
	assert.Equal(t, http.StatusOK, meta.HTTPStatus)
	assert.Empty(t, meta.Missing)
}

func TestFromURL_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, _, err := FromURL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPRequestFailed)

	var fetchErr *fetch.Error
	assert.ErrorAs(t, err, &fetchErr)
}

func TestFromURL_BrowserFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="root"></div></body></html>`))
	}))
	defer server.Close()

	calls := stubRender(t, `<html><body><div id="jobDescriptionText">`+description+`</div></body></html>`, nil)

	rec, meta, err := FromURL(context.Background(), server.URL+"/indeed.com/viewjob", &Options{UseBrowser: true})
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, SourceBrowser, meta.Source)
	assert.NotEmpty(t, rec.Description)
}

func TestFromURL_BrowserFallbackFailureKeepsHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Analyst | Initech</title></head><body></body></html>`))
	}))
	defer server.Close()

	stubRender(t, "", errors.New("chrome not installed"))

	rec, meta, err := FromURL(context.Background(), server.URL+"/indeed.com/viewjob", &Options{UseBrowser: true})
	require.NoError(t, err)
	assert.Equal(t, SourceHTTP, meta.Source)
	assert.Equal(t, "Analyst", rec.Title)
	assert.Empty(t, rec.Description)
}

func TestFromURL_BrowserOnly(t *testing.T) {
	calls := stubRender(t, `<html><head><title>Go Developer - Globex</title></head></html>`, nil)

	rec, meta, err := FromURL(context.Background(), "https://www.naukri.com/job-listings-1", &Options{BrowserOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, SourceBrowser, meta.Source)
	assert.Equal(t, "Go Developer", rec.Title)
	assert.Equal(t, "Globex", rec.Company)
}

func TestFromURL_BrowserOnlyFailure(t *testing.T) {
	stubRender(t, "", errors.New("boom"))

	_, _, err := FromURL(context.Background(), "https://www.naukri.com/job-listings-1", &Options{BrowserOnly: true})
	assert.ErrorIs(t, err, ErrBrowserFailed)
}

func TestFromFile_AndWriteOutput(t *testing.T) {
	tmpDir := t.TempDir()
	page := filepath.Join(tmpDir, "page.html")
	html := `<html><body>
		<h1 class="top-card-layout__title">Platform Engineer</h1>
		<a class="topcard__org-name-link" href="/company/hooli">Hooli</a>
		<div class="description__text">` + description + `</div>
	</body></html>`
	require.NoError(t, os.WriteFile(page, []byte(html), 0644))

	opts := &Options{Scrape: scrape.DefaultOptions()}
	opts.Scrape.Trace = true
	rec, meta, err := FromFile(page, "https://www.linkedin.com/jobs/view/1", opts)
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", rec.Title)
	assert.Equal(t, "Hooli", rec.Company)
	assert.Equal(t, SourceFile, meta.Source)
	assert.NotEmpty(t, rec.Trace)

	outDir := filepath.Join(tmpDir, "out")
	require.NoError(t, WriteOutput(outDir, rec, meta))

	data, err := os.ReadFile(filepath.Join(outDir, RecordFile))
	require.NoError(t, err)
	var written scrape.JobRecord
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, *rec, written)

	_, err = os.Stat(filepath.Join(outDir, MetadataFile))
	assert.NoError(t, err)
}

func TestFromFile_NotFound(t *testing.T) {
	_, _, err := FromFile(filepath.Join(t.TempDir(), "missing.html"), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestFromHTML(t *testing.T) {
	html := `<html><head><title>Site Reliability Engineer - Globex | Indeed.com</title></head><body>
		<div id="jobDescriptionText">` + description + `</div>
	</body></html>`

	rec, meta, err := FromHTML(html, "https://www.indeed.com/viewjob?jk=42", nil)
	require.NoError(t, err)
	assert.Equal(t, scrape.PlatformIndeed, rec.Platform)
	assert.Equal(t, strings.TrimSpace(description), rec.Description)
	assert.Equal(t, "Site Reliability Engineer - Globex", rec.Title)
	assert.Equal(t, SourceInline, meta.Source)
	assert.Equal(t, rec.ContentHash(), meta.Hash)
}
