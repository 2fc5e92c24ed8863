package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/resumator/internal/scrape"
)

// Snapshot sources recorded in Metadata.Source.
const (
	SourceHTTP    = "http"
	SourceBrowser = "browser"
	SourceFile    = "file"
	SourceInline  = "inline"
)

// Metadata describes how a job record was obtained.
type Metadata struct {
	URL        string   `json:"url,omitempty"`
	Timestamp  string   `json:"timestamp"`                 // RFC3339 format
	Hash       string   `json:"hash"`                      // SHA256 hex digest of the description
	Platform   string   `json:"platform"`                  // Classified job board
	Source     string   `json:"source"`                    // http, browser, file or inline
	HTTPStatus int      `json:"http_status,omitempty"`     // Status of the HTTP fetch, if any
	Missing    []string `json:"missing_fields,omitempty"` // Fields no strategy resolved
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(rec *scrape.JobRecord, source string) *Metadata {
	m := &Metadata{
		URL:       rec.URL,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      rec.ContentHash(),
		Platform:  string(rec.Platform),
		Source:    source,
	}
	for _, f := range rec.Missing() {
		m.Missing = append(m.Missing, string(f))
	}
	return m
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
