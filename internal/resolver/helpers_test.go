package resolver

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/profile-compare/internal/fetch"
)

// fakeEthos serves the three upstream endpoints with canned bodies and counts calls.
type fakeEthos struct {
	mu           sync.Mutex
	legacyValues string
	legacyStatus int
	level        string
	levelStatus  int
	v2Values     string
	v2Status     int
	// gate, when set, blocks legacy search requests until closed.
	gate chan struct{}

	legacyCalls atomic.Int32
	scoreCalls  atomic.Int32
	v2Calls     atomic.Int32
}

func newFakeEthos() *fakeEthos {
	return &fakeEthos{
		legacyValues: `[]`,
		level:        "neutral",
		v2Values:     `[]`,
	}
}

func (f *fakeEthos) set(fn func(f *fakeEthos)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeEthos) snapshot() fakeEthos {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeEthos{
		legacyValues: f.legacyValues,
		legacyStatus: f.legacyStatus,
		level:        f.level,
		levelStatus:  f.levelStatus,
		v2Values:     f.v2Values,
		v2Status:     f.v2Status,
		gate:         f.gate,
	}
}

func (f *fakeEthos) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/search", func(w http.ResponseWriter, r *http.Request) {
		f.legacyCalls.Add(1)
		s := f.snapshot()
		if s.gate != nil {
			select {
			case <-s.gate:
			case <-r.Context().Done():
				return
			}
		}
		if s.legacyStatus != 0 {
			w.WriteHeader(s.legacyStatus)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"data":{"values":` + s.legacyValues + `}}`))
	})
	mux.HandleFunc("GET /v2/score/userkey", func(w http.ResponseWriter, _ *http.Request) {
		f.scoreCalls.Add(1)
		s := f.snapshot()
		if s.levelStatus != 0 {
			w.WriteHeader(s.levelStatus)
			return
		}
		_, _ = w.Write([]byte(`{"level":"` + s.level + `"}`))
	})
	mux.HandleFunc("GET /v2/users/search", func(w http.ResponseWriter, _ *http.Request) {
		f.v2Calls.Add(1)
		s := f.snapshot()
		if s.v2Status != 0 {
			w.WriteHeader(s.v2Status)
			return
		}
		_, _ = w.Write([]byte(`{"values":` + s.v2Values + `}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server, timeout time.Duration) *fetch.Client {
	opts := fetch.DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return fetch.NewClient(&fetch.ClientConfig{
		APIBaseURL:    server.URL + "/v2",
		LegacyBaseURL: server.URL + "/v1",
		HTTPClient:    server.Client(),
		Options:       opts,
	})
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingFallbacks struct {
	mu      sync.Mutex
	handles []string
}

func (c *countingFallbacks) SyntheticFallback(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles = append(c.handles, handle)
}
