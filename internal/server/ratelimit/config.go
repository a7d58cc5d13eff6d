package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends in "/"
	Method string        // HTTP method
	Limit  int           // requests per window
	Window time.Duration // refill window
	Burst  int           // bucket capacity; Limit when 0
}

// LoadConfig builds the limiter configuration from environment lookups. Unset or
// unparsable values fall back to the defaults.
func LoadConfig(getenv func(string) string) *Config {
	env := envReader(getenv)
	if !env.getBool("SKILLBRIDGE_RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.getInt("SKILLBRIDGE_RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   env.getDuration("SKILLBRIDGE_RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.getDuration("SKILLBRIDGE_RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(env("SKILLBRIDGE_RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(env("SKILLBRIDGE_RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(env.getInt("SKILLBRIDGE_RATE_LIMIT_ANALYZE_PER_HOUR", 20)),
	}
}

// DefaultEndpointConfigs returns the per-endpoint tiers. Analyses call the model
// and get the strict tier.
func DefaultEndpointConfigs(analysesPerHour int) []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: model calls
		{Path: "/analyze", Method: "POST", Limit: analysesPerHour, Window: time.Hour, Burst: 3},
		{Path: "/analyze/stream", Method: "POST", Limit: analysesPerHour, Window: time.Hour, Burst: 3},

		// Tier 2: report writes
		{Path: "/reports", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// Tier 3: report reads
		{Path: "/reports/", Method: "GET", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

type envReader func(string) string

func (e envReader) getInt(key string, def int) int {
	if v, err := strconv.Atoi(e(key)); err == nil {
		return v
	}
	return def
}

func (e envReader) getBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(e(key)); err == nil {
		return v
	}
	return def
}

func (e envReader) getDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(e(key)); err == nil {
		return v
	}
	return def
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
