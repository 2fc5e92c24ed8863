// Package scrape recovers a canonical job record from a job-posting page snapshot.
//
// Extraction is a pure function of a parsed document and its URL: the platform is
// classified from the URL, each field runs an ordered list of locators, heuristics
// cover markup drift, and the document title is decomposed as a last resort.
package scrape

import "strings"

// Platform identifies the job board a page belongs to.
type Platform string

const (
	// PlatformLinkedIn is linkedin.com
	PlatformLinkedIn Platform = "linkedin"
	// PlatformIndeed is indeed.com
	PlatformIndeed Platform = "indeed"
	// PlatformNaukri is naukri.com
	PlatformNaukri Platform = "naukri"
	// PlatformUnknown is any other site
	PlatformUnknown Platform = "unknown"
)

// platformPatterns is checked in order; the first substring found wins.
var platformPatterns = []struct {
	pattern  string
	platform Platform
}{
	{"linkedin.com", PlatformLinkedIn},
	{"indeed.com", PlatformIndeed},
	{"naukri.com", PlatformNaukri},
}

// Classify maps a page URL to a Platform. It never fails.
func Classify(pageURL string) Platform {
	u := strings.ToLower(pageURL)
	for _, p := range platformPatterns {
		if strings.Contains(u, p.pattern) {
			return p.platform
		}
	}
	return PlatformUnknown
}

// Known reports whether the platform has its own locator table.
func (p Platform) Known() bool {
	return p == PlatformLinkedIn || p == PlatformIndeed || p == PlatformNaukri
}
