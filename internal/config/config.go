// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/profile-compare/internal/fetch"
	"github.com/jonathan/profile-compare/internal/resolver"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIURL          = "ETHOS_API_URL"
	EnvLegacyAPIURL    = "ETHOS_LEGACY_API_URL"
	EnvTimeout         = "ETHOS_TIMEOUT"
	EnvLookupTimeout   = "LOOKUP_TIMEOUT"
	EnvProfileCacheTTL = "PROFILE_CACHE_TTL"
	EnvSearchCacheTTL  = "SEARCH_CACHE_TTL"
	EnvUpstreamRPS     = "UPSTREAM_RPS"
	EnvUpstreamBurst   = "UPSTREAM_BURST"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvPort            = "PORT"
	EnvOfflineFallback = "OFFLINE_FALLBACK"
	EnvPublicURL       = "PUBLIC_URL"
)

// DefaultPort is the HTTP port used by serve.
const DefaultPort = 8080

// DefaultPublicURL is the page that comparison share links point to.
const DefaultPublicURL = "http://localhost:8080/"

// Config represents the application configuration that can be loaded from a JSON file.
// Zero values are filled from Default by MergeWithDefaults.
type Config struct {
	// Upstream
	APIURL        string   `json:"api_url,omitempty" validate:"omitempty,url"`        // v2 API base URL
	LegacyAPIURL  string   `json:"legacy_api_url,omitempty" validate:"omitempty,url"` // v1 API base URL
	Timeout       Duration `json:"timeout,omitempty" validate:"gte=0"`                // Per-request timeout
	UpstreamRPS   float64  `json:"upstream_rps,omitempty" validate:"gte=0"`           // Outbound requests per second, 0 disables limiting
	UpstreamBurst int      `json:"upstream_burst,omitempty" validate:"gte=0"`         // Limiter burst
	LookupTimeout Duration `json:"lookup_timeout,omitempty" validate:"gte=0"`         // Bound on one shared profile lookup

	// Caching
	ProfileCacheTTL Duration `json:"profile_cache_ttl,omitempty" validate:"gte=0"`
	SearchCacheTTL  Duration `json:"search_cache_ttl,omitempty" validate:"gte=0"`

	// Behavior
	OfflineFallback *bool `json:"offline_fallback,omitempty"` // Build synthetic profiles when the upstream is down
	Verbose         bool  `json:"verbose,omitempty"`          // Print detailed debug information

	// Server
	Port        int    `json:"port,omitempty" validate:"gte=0,lte=65535"`
	PublicURL   string `json:"public_url,omitempty" validate:"omitempty,url"` // Base of comparison share links
	DatabaseURL string `json:"database_url,omitempty"`                        // PostgreSQL connection URL, archive disabled when empty
}

// Default returns the built-in configuration.
func Default() Config {
	fallback := true
	return Config{
		APIURL:          fetch.DefaultAPIBaseURL,
		LegacyAPIURL:    fetch.DefaultLegacyBaseURL,
		Timeout:         Duration(fetch.DefaultTimeout),
		UpstreamRPS:     10,
		UpstreamBurst:   5,
		LookupTimeout:   Duration(resolver.DefaultLookupTimeout),
		ProfileCacheTTL: Duration(resolver.DefaultProfileTTL),
		SearchCacheTTL:  Duration(resolver.DefaultSearchTTL),
		OfflineFallback: &fallback,
		Port:            DefaultPort,
		PublicURL:       DefaultPublicURL,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the optional file
// at path, then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	merged := cfg.MergeWithDefaults(Default())
	if err := merged.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.LegacyAPIURL == "" {
		result.LegacyAPIURL = defaults.LegacyAPIURL
	}
	if result.Timeout == 0 {
		result.Timeout = defaults.Timeout
	}
	if result.UpstreamRPS == 0 {
		result.UpstreamRPS = defaults.UpstreamRPS
	}
	if result.UpstreamBurst == 0 {
		result.UpstreamBurst = defaults.UpstreamBurst
	}
	if result.LookupTimeout == 0 {
		result.LookupTimeout = defaults.LookupTimeout
	}
	if result.ProfileCacheTTL == 0 {
		result.ProfileCacheTTL = defaults.ProfileCacheTTL
	}
	if result.SearchCacheTTL == 0 {
		result.SearchCacheTTL = defaults.SearchCacheTTL
	}
	if result.OfflineFallback == nil {
		result.OfflineFallback = defaults.OfflineFallback
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.PublicURL == "" {
		result.PublicURL = defaults.PublicURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Bool fields: OR with defaults (if either is true, result is true)
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// ApplyEnv overrides fields from environment variables found by lookup.
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIURL); ok {
		c.APIURL = v
	}
	if v, ok := get(EnvLegacyAPIURL); ok {
		c.LegacyAPIURL = v
	}
	if v, ok := get(EnvDatabaseURL); ok {
		c.DatabaseURL = v
	}
	if v, ok := get(EnvPublicURL); ok {
		c.PublicURL = v
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{EnvTimeout, &c.Timeout},
		{EnvLookupTimeout, &c.LookupTimeout},
		{EnvProfileCacheTTL, &c.ProfileCacheTTL},
		{EnvSearchCacheTTL, &c.SearchCacheTTL},
	}
	for _, d := range durations {
		if v, ok := get(d.key); ok {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config error: %s: %w", d.key, err)
			}
			*d.dst = Duration(parsed)
		}
	}

	if v, ok := get(EnvUpstreamRPS); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config error: %s: %w", EnvUpstreamRPS, err)
		}
		c.UpstreamRPS = rps
	}
	if v, ok := get(EnvUpstreamBurst); ok {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: %s: %w", EnvUpstreamBurst, err)
		}
		c.UpstreamBurst = burst
	}
	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: %s: %w", EnvPort, err)
		}
		c.Port = port
	}
	if v, ok := get(EnvOfflineFallback); ok {
		fallback, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config error: %s: %w", EnvOfflineFallback, err)
		}
		c.OfflineFallback = &fallback
	}
	return nil
}

// FallbackEnabled reports whether synthetic profiles are allowed.
func (c *Config) FallbackEnabled() bool {
	return c.OfflineFallback == nil || *c.OfflineFallback
}

// ClientConfig returns the upstream client configuration.
func (c *Config) ClientConfig(observer fetch.Observer) *fetch.ClientConfig {
	opts := fetch.DefaultOptions()
	if c.Timeout > 0 {
		opts.Timeout = c.Timeout.Std()
	}
	return &fetch.ClientConfig{
		APIBaseURL:        c.APIURL,
		LegacyBaseURL:     c.LegacyAPIURL,
		Options:           opts,
		RequestsPerSecond: c.UpstreamRPS,
		Burst:             c.UpstreamBurst,
		Observer:          observer,
	}
}

// CoreConfig returns the resolver configuration. Observers and logger are
// left for the caller to set.
func (c *Config) CoreConfig() *resolver.CoreConfig {
	core := resolver.DefaultCoreConfig()
	core.ProfileTTL = c.ProfileCacheTTL.Std()
	core.SearchTTL = c.SearchCacheTTL.Std()
	core.OfflineFallback = c.FallbackEnabled()
	core.Profile = resolver.DefaultProfileConfig()
	core.Profile.OfflineFallback = core.OfflineFallback
	core.Profile.Logger = nil
	core.Profile.Now = nil
	if c.LookupTimeout > 0 {
		core.Profile.LookupTimeout = c.LookupTimeout.Std()
	}
	return core
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
