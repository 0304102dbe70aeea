package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonathan/profile-compare/internal/observability"
	"github.com/jonathan/profile-compare/internal/server/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware(t *testing.T) {
	s, err := New(newStubCore(), Config{
		RateLimit: &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  100,
			DefaultWindow: time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Path: "/compare", Method: "GET", Limit: 2, Window: time.Minute, Burst: 2},
			},
		},
	})
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 2; i++ {
		rec := doRequest(t, s, http.MethodGet, "/compare?left=alice&right=bob")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := doRequest(t, s, http.MethodGet, "/compare?left=alice&right=bob")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	rec = doRequest(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code, "health is never limited")
}

func TestNew_SharesProvidedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	m.CacheHit("profile")

	s, err := New(newStubCore(), Config{Registry: reg, Metrics: m, RateLimit: &ratelimit.Config{}})
	require.NoError(t, err)
	defer s.Close()

	rec := doRequest(t, s, http.MethodGet, "/metrics")
	assert.Contains(t, rec.Body.String(), `profile_compare_cache_requests_total{cache="profile",result="hit"} 1`)
}

func TestRequestIDPropagates(t *testing.T) {
	s := newTestServer(t, newStubCore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	s, err := New(newStubCore(), Config{Port: 0, RateLimit: &ratelimit.Config{}})
	require.NoError(t, err)
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
