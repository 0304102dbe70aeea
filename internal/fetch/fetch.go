// Package fetch provides the HTTP client for the upstream reputation API.
// It centralizes request construction, timeouts, rate limiting and JSON decoding
// for the legacy search, score and user search endpoints.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 5 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ProfileCompare/1.0)"

// ClientHeader identifies this application to the upstream API.
const ClientHeader = "X-Ethos-Client"

// DefaultClientName is sent in the ClientHeader.
const DefaultClientName = "profile-compare@1.0.0"

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 4 << 20

// Error represents a failed upstream call: transport failure, timeout,
// non-success status or an undecodable body.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Headers: map[string]string{
			ClientHeader: DefaultClientName,
		},
	}
}

// JSON performs a GET request against urlStr and decodes the JSON body into out.
// The request is bounded by opts.Timeout in addition to ctx.
func JSON(ctx context.Context, httpClient *http.Client, urlStr string, opts *Options, out any) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	req.Header.Set("Accept", "application/json")
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{
			URL:        urlStr,
			Message:    "failed to read response body",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return &Error{
			URL:        urlStr,
			Message:    "failed to decode response body",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}

	return nil
}
