package ratelimit

import (
	"os"
	"strconv"
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

// Environment variables read by LoadConfig.
const (
	EnvEnabled         = "RATE_LIMIT_ENABLED"
	EnvDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	EnvAllowList       = "RATE_LIMIT_WHITELIST"
	EnvDenyList        = "RATE_LIMIT_BLACKLIST"
)

// LoadConfig loads rate limiting configuration from the process environment.
func LoadConfig() *Config {
	return LoadConfigFrom(os.LookupEnv)
}

// LoadConfigFrom builds the configuration from lookup. Unparseable values
// fall back to their defaults.
func LoadConfigFrom(lookup func(string) (string, bool)) *Config {
	env := envReader{lookup: lookup}
	if !env.boolean(EnvEnabled, true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.integer(EnvDefaultLimit, 1000),
		DefaultWindow:   env.duration(EnvDefaultWindow, time.Minute),
		CleanupInterval: env.duration(EnvCleanupInterval, 5*time.Minute),
		Whitelist:       env.clientSet(EnvAllowList),
		Blacklist:       env.clientSet(EnvDenyList),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: fan out to the upstream API twice per request
		{Path: "/compare", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},

		// Tier 2: single upstream lookups
		{Path: "/profiles/", Method: "GET", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/search", Method: "GET", Limit: 300, Window: time.Minute, Burst: 30},

		// Tier 3: administrative writes
		{Path: "/cache/clear", Method: "POST", Limit: 10, Window: time.Minute, Burst: 2},

		// Tier 4: archive reads are handled by the default limit;
		// health and metrics are unlimited in the matcher
	}
}

type envReader struct {
	lookup func(string) (string, bool)
}

func (e envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e envReader) integer(key string, def int) int {
	if v, ok := e.get(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if v, ok := e.get(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if v, ok := e.get(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// clientSet parses a comma-separated list of client IDs.
func (e envReader) clientSet(key string) map[string]bool {
	set := make(map[string]bool)
	v, ok := e.get(key)
	if !ok {
		return set
	}
	for _, id := range strings.Split(v, ",") {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = true
		}
	}
	return set
}
