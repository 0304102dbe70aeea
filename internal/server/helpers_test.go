package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/profile-compare/internal/db"
	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/resolver"
	"github.com/jonathan/profile-compare/internal/server/ratelimit"
	"github.com/jonathan/profile-compare/internal/types"
	"github.com/stretchr/testify/require"
)

type stubCore struct {
	mu       sync.Mutex
	profiles map[string]*types.UserProfile
	errs     map[string]error
	results  []types.SearchCandidate
	queries  []string
	cleared  int
}

func newStubCore() *stubCore {
	return &stubCore{
		profiles: map[string]*types.UserProfile{
			"alice": {Handle: "alice", DisplayName: "Alice", Score: 1700, Level: types.LevelReputable, TotalXP: 300, Stats: zeroStats()},
			"bob":   {Handle: "bob", DisplayName: "Bob", Score: 1250, Level: types.LevelNeutral, TotalXP: 900, Stats: zeroStats()},
		},
		errs: map[string]error{},
	}
}

func zeroStats() types.ProfileStats {
	return types.ProfileStats{Vouch: types.VouchStats{
		Given:    types.VouchTotals{AmountWeiTotal: "0"},
		Received: types.VouchTotals{AmountWeiTotal: "0"},
	}}
}

func (c *stubCore) Resolve(_ context.Context, handle string) (*types.UserProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := types.NormalizeHandle(handle)
	if err, ok := c.errs[key]; ok {
		return nil, err
	}
	if p, ok := c.profiles[key]; ok {
		return p, nil
	}
	return nil, &resolver.NotFoundError{Handle: handle}
}

func (c *stubCore) Search(_ context.Context, query string) []types.SearchCandidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, query)
	return c.results
}

func (c *stubCore) DeriveMetrics(profile *types.UserProfile) types.DisplayMetrics {
	return metrics.Derive(profile)
}

func (c *stubCore) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared++
}

func (c *stubCore) CacheSizes() map[string]int {
	return map[string]int{"profile": len(c.profiles), "search": 0}
}

type memoryArchive struct {
	mu      sync.Mutex
	saved   map[uuid.UUID]*types.Comparison
	order   []uuid.UUID
	saveErr error
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{saved: map[uuid.UUID]*types.Comparison{}}
}

func (a *memoryArchive) SaveComparison(_ context.Context, c *types.Comparison) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveErr != nil {
		return a.saveErr
	}
	a.saved[c.ID] = c
	a.order = append(a.order, c.ID)
	return nil
}

func (a *memoryArchive) GetComparison(_ context.Context, id uuid.UUID) (*types.Comparison, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saved[id], nil
}

func (a *memoryArchive) ListRecentComparisons(_ context.Context, handle string, limit int) ([]db.ComparisonSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if handle == "boom" {
		return nil, errors.New("database unavailable")
	}
	limit = db.ClampLimit(limit)
	var out []db.ComparisonSummary
	for i := len(a.order) - 1; i >= 0 && len(out) < limit; i-- {
		c := a.saved[a.order[i]]
		out = append(out, db.ComparisonSummary{ID: c.ID, LeftHandle: c.Left.Handle, RightHandle: c.Right.Handle, CreatedAt: c.CreatedAt})
	}
	return out, nil
}

func newTestServer(t *testing.T, core Core, archive Archive) *Server {
	t.Helper()
	cfg := Config{
		PublicURL: "https://pvp.example/",
		RateLimit: &ratelimit.Config{Enabled: false},
	}
	if archive != nil {
		cfg.Archive = archive
	}
	s, err := New(core, cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[map[string]string](t, rec)
	return body["error"]
}

