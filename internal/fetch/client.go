package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultAPIBaseURL is the base URL of the v2 API (score and user search).
	DefaultAPIBaseURL = "https://api.ethos.network/api/v2"
	// DefaultLegacyBaseURL is the base URL of the legacy v1 API (fast search).
	DefaultLegacyBaseURL = "https://api.ethos.network/api/v1"
)

// Endpoint names used for metrics labels.
const (
	EndpointLegacySearch = "legacy_search"
	EndpointScore        = "score"
	EndpointUserSearch   = "user_search"
)

// Observer records the outcome and latency of upstream calls.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, elapsed time.Duration)
}

// ClientConfig holds configuration for the upstream client.
type ClientConfig struct {
	APIBaseURL    string
	LegacyBaseURL string
	Options       *Options
	// RequestsPerSecond limits outbound calls; zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Observer          Observer
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		APIBaseURL:        DefaultAPIBaseURL,
		LegacyBaseURL:     DefaultLegacyBaseURL,
		Options:           DefaultOptions(),
		RequestsPerSecond: 10,
		Burst:             5,
	}
}

// Client talks to the upstream reputation API.
type Client struct {
	apiBase    string
	legacyBase string
	options    *Options
	http       *http.Client
	limiter    *rate.Limiter
	observer   Observer
}

// NewClient creates a new upstream client.
func NewClient(config *ClientConfig) *Client {
	defaults := DefaultClientConfig()
	if config == nil {
		config = defaults
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaults.APIBaseURL
	}
	if config.LegacyBaseURL == "" {
		config.LegacyBaseURL = defaults.LegacyBaseURL
	}
	if config.Options == nil {
		config.Options = defaults.Options
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	return &Client{
		apiBase:    strings.TrimRight(config.APIBaseURL, "/"),
		legacyBase: strings.TrimRight(config.LegacyBaseURL, "/"),
		options:    config.Options,
		http:       config.HTTPClient,
		limiter:    limiter,
		observer:   config.Observer,
	}
}

// LegacySearch queries the legacy search endpoint and returns every value it lists.
// A response with ok=false is reported as an error.
func (c *Client) LegacySearch(ctx context.Context, query string, limit int) ([]LegacyUser, error) {
	params := url.Values{}
	params.Set("query", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	urlStr := c.legacyBase + "/search?" + params.Encode()

	var resp LegacySearchResponse
	if err := c.get(ctx, EndpointLegacySearch, urlStr, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &Error{URL: urlStr, Message: "upstream reported ok=false"}
	}
	return resp.Data.Values, nil
}

// ScoreLevel returns the tier reported for an internal user key.
func (c *Client) ScoreLevel(ctx context.Context, userkey string) (string, error) {
	params := url.Values{}
	params.Set("userkey", userkey)
	urlStr := c.apiBase + "/score/userkey?" + params.Encode()

	var resp ScoreResponse
	if err := c.get(ctx, EndpointScore, urlStr, &resp); err != nil {
		return "", err
	}
	return string(resp.Level), nil
}

// SearchUsers queries the v2 user search endpoint.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]V2User, error) {
	params := url.Values{}
	params.Set("query", query)
	urlStr := c.apiBase + "/users/search?" + params.Encode()

	var resp UserSearchResponse
	if err := c.get(ctx, EndpointUserSearch, urlStr, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) get(ctx context.Context, endpoint, urlStr string, out any) error {
	start := time.Now()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.observe(endpoint, "rate_limited", start)
			return &Error{URL: urlStr, Message: "rate limiter wait aborted", Cause: err}
		}
	}

	err := JSON(ctx, c.http, urlStr, c.options, out)
	c.observe(endpoint, outcome(err), start)
	return err
}

func (c *Client) observe(endpoint, result string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, result, time.Since(start))
	}
}

// outcome classifies an upstream error for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var fetchErr *Error
	if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 && fetchErr.StatusCode != http.StatusOK {
		return fmt.Sprintf("http_%d", fetchErr.StatusCode)
	}
	return "error"
}
