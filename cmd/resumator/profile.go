package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/resumator/internal/ingestion"
	"github.com/jonathan/resumator/internal/scrape"
)

// loadProfile reads the candidate profile sent to the backend as user_data. JSON
// is a subset of YAML, so one decoder handles both. A comma-separated skills
// string is split into a list.
func loadProfile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var profile map[string]any
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if len(profile) == 0 {
		return nil, fmt.Errorf("profile %s is empty", path)
	}

	if skills, ok := profile["skills"].(string); ok {
		list := []string{}
		for _, s := range strings.Split(skills, ",") {
			if s = strings.TrimSpace(s); s != "" {
				list = append(list, s)
			}
		}
		profile["skills"] = list
	}
	return profile, nil
}

// jobSource selects where the job posting comes from for match and generate.
type jobSource struct {
	url         string
	file        string
	pageURL     string
	description string
	title       string
}

// resolve returns the job record to send to the backend. A description given
// directly skips extraction.
func (s jobSource) resolve(ctx context.Context, opts *ingestion.Options) (*scrape.JobRecord, error) {
	var rec *scrape.JobRecord
	var err error
	switch {
	case s.description != "":
		rec = &scrape.JobRecord{Description: s.description, Trace: []string{}}
	case s.file != "":
		rec, _, err = ingestion.FromFile(s.file, s.pageURL, opts)
	case s.url != "":
		rec, _, err = ingestion.FromURL(ctx, s.url, opts)
	default:
		return nil, fmt.Errorf("one of --url, --file or --description must be provided")
	}
	if err != nil {
		return nil, err
	}
	if s.title != "" {
		rec.Title = s.title
	}
	if rec.Description == "" {
		return nil, fmt.Errorf("job description is missing")
	}
	return rec, nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// resumeFileName names a generated resume after the job title.
func resumeFileName(title string) string {
	if title == "" {
		return "Resume_Generated.pdf"
	}
	return "Resume_" + unsafeFileChars.ReplaceAllString(title, "_") + ".pdf"
}

func writeResume(outDir, title string, pdf []byte) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outDir, resumeFileName(title))
	if err := os.WriteFile(path, pdf, 0644); err != nil {
		return "", fmt.Errorf("failed to write resume: %w", err)
	}
	return path, nil
}
