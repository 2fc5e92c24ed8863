package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel    = "RESUMATOR_LOG_LEVEL"
	EnvTrace       = "RESUMATOR_TRACE"
	EnvUseBrowser  = "RESUMATOR_USE_BROWSER"
	EnvUserAgent   = "RESUMATOR_USER_AGENT"
	EnvRateLimit   = "RESUMATOR_REQUESTS_PER_SECOND"
	EnvPort        = "RESUMATOR_PORT"
	EnvAPIKey      = "RESUMATOR_API_KEY"
	EnvDatabaseURL = "DATABASE_URL"
	EnvBackendURL  = "BACKEND_URL"
)

// ApplyEnv overrides fields from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv(EnvBackendURL); v != "" {
		c.Backend.URL = v
	}
	if v := getenv(EnvAPIKey); v != "" {
		c.Server.APIKey = v
	}
	if v := getenv(EnvUserAgent); v != "" {
		c.Fetch.UserAgent = v
	}

	if v := getenv(EnvTrace); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTrace, err)
		}
		c.Extraction.Trace = b
	}
	if v := getenv(EnvUseBrowser); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvUseBrowser, err)
		}
		c.Fetch.UseBrowser = b
	}
	if v := getenv(EnvRateLimit); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRateLimit, err)
		}
		c.Fetch.RequestsPerSecond = f
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	return nil
}
