package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://www.linkedin.com/jobs/view/3812345678/", PlatformLinkedIn},
		{"https://www.indeed.com/viewjob?jk=abc123", PlatformIndeed},
		{"https://in.indeed.com/viewjob?jk=abc123", PlatformIndeed},
		{"https://www.naukri.com/job-listings-backend-developer-123", PlatformNaukri},
		{"HTTPS://WWW.LINKEDIN.COM/jobs/view/1", PlatformLinkedIn},
		{"https://example.org/careers/42", PlatformUnknown},
		{"", PlatformUnknown},
		{"not a url", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.url))
		})
	}
}

func TestClassify_FirstPatternWins(t *testing.T) {
	// A LinkedIn redirect carrying an Indeed URL in its query still classifies as LinkedIn.
	url := "https://www.linkedin.com/redir?url=https://www.indeed.com/viewjob"
	assert.Equal(t, PlatformLinkedIn, Classify(url))
}

func TestPlatform_Known(t *testing.T) {
	assert.True(t, PlatformLinkedIn.Known())
	assert.True(t, PlatformIndeed.Known())
	assert.True(t, PlatformNaukri.Known())
	assert.False(t, PlatformUnknown.Known())
}
