package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resumator/internal/scrape"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// StoredRecord is a job record as persisted, keyed by URL.
type StoredRecord struct {
	ID          uuid.UUID       `json:"id"`
	URL         string          `json:"url"`
	Platform    scrape.Platform `json:"platform"`
	Title       string          `json:"title"`
	Company     string          `json:"company"`
	Description string          `json:"description"`
	ContentHash string          `json:"content_hash"`
	Trace       []string        `json:"trace"`
	ExtractedAt time.Time       `json:"extracted_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// JobRecord converts the stored row back into an extraction result.
func (r *StoredRecord) JobRecord() *scrape.JobRecord {
	trace := r.Trace
	if trace == nil {
		trace = []string{}
	}
	return &scrape.JobRecord{
		Title:       r.Title,
		Company:     r.Company,
		Description: r.Description,
		URL:         r.URL,
		Platform:    r.Platform,
		Trace:       trace,
	}
}

// ListOptions filters and pages ListRecords.
type ListOptions struct {
	Platform scrape.Platform
	Limit    int
	Offset   int
}

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
