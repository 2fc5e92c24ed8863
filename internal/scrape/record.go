package scrape

import (
	"crypto/sha256"
	"encoding/hex"
)

// Field names one of the extracted text fields.
type Field string

const (
	FieldTitle       Field = "title"
	FieldCompany     Field = "company"
	FieldDescription Field = "description"
)

// Fields lists the extracted fields in the order they are resolved.
var Fields = []Field{FieldTitle, FieldCompany, FieldDescription}

// JobRecord is the result of one extraction call. Empty strings mean "unknown".
type JobRecord struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Platform    Platform `json:"platform"`
	Trace       []string `json:"trace"`
}

// Get returns the value of a field.
func (r *JobRecord) Get(f Field) string {
	switch f {
	case FieldTitle:
		return r.Title
	case FieldCompany:
		return r.Company
	case FieldDescription:
		return r.Description
	}
	return ""
}

func (r *JobRecord) set(f Field, v string) {
	switch f {
	case FieldTitle:
		r.Title = v
	case FieldCompany:
		r.Company = v
	case FieldDescription:
		r.Description = v
	}
}

// Missing returns the fields that are still empty.
func (r *JobRecord) Missing() []Field {
	var missing []Field
	for _, f := range Fields {
		if r.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Complete reports whether every field was resolved.
func (r *JobRecord) Complete() bool {
	return len(r.Missing()) == 0
}

// ContentHash returns the SHA256 hex digest of the description.
func (r *JobRecord) ContentHash() string {
	hash := sha256.Sum256([]byte(r.Description))
	return hex.EncodeToString(hash[:])
}
