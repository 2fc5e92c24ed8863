package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig builds a configuration where extraction requests are limited to
// extractPerMinute per client with the given burst. Other endpoints get ten times
// that budget. A non-positive extractPerMinute disables limiting.
func NewConfig(extractPerMinute, burst int) *Config {
	if extractPerMinute <= 0 {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    extractPerMinute * 10,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(extractPerMinute, burst),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Extraction and
// watching fetch third-party pages and may launch a browser, so they get the
// strictest budget.
func DefaultEndpointConfigs(extractPerMinute, burst int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/extract", Method: http.MethodPost, Limit: extractPerMinute, Window: time.Minute, Burst: burst},
		{Path: "/watch", Method: http.MethodGet, Limit: extractPerMinute, Window: time.Minute, Burst: burst},
		{Path: "/records/", Method: http.MethodDelete, Limit: extractPerMinute, Window: time.Minute, Burst: burst},
	}
}

// ParseIPList parses a comma-separated list of IP addresses into a set.
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
