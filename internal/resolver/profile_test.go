package resolver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/profile-compare/internal/fetch"
	"github.com/jonathan/profile-compare/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceValues = `[
	{"username":"alice","name":"Alice","avatar":"https://img/a.png","score":1400,"userkey":"profileId:7","profileId":7,"description":"builder"},
	{"username":"alice_fan","name":"Fan","score":20,"userkey":"address:0x1"}
]`

func newTestCore(t *testing.T, f *fakeEthos, config *CoreConfig) *Core {
	t.Helper()
	server := f.start(t)
	if config == nil {
		config = DefaultCoreConfig()
	}
	return NewCore(newTestClient(server, 0), config)
}

func TestResolve_SecondCallHitsCache(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	core := newTestCore(t, f, nil)
	ctx := context.Background()

	first, err := core.Resolve(ctx, "alice")
	require.NoError(t, err)
	second, err := core.Resolve(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.legacyCalls.Load())
	assert.Equal(t, int32(1), f.scoreCalls.Load())
	assert.Equal(t, int32(1), f.v2Calls.Load())
}

func TestResolve_CacheKeyIgnoresCase(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	core := newTestCore(t, f, nil)
	ctx := context.Background()

	_, err := core.Resolve(ctx, "ALICE")
	require.NoError(t, err)
	profile, err := core.Resolve(ctx, "  alice ")
	require.NoError(t, err)

	assert.Equal(t, "alice", profile.Handle)
	assert.Equal(t, int32(1), f.legacyCalls.Load())
}

func TestResolve_ClearCacheForcesRefetch(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	core := newTestCore(t, f, nil)
	ctx := context.Background()

	_, err := core.Resolve(ctx, "alice")
	require.NoError(t, err)
	core.ClearCache()
	_, err = core.Resolve(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.legacyCalls.Load())
}

func TestResolve_CacheExpires(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	clock := newFakeClock()
	config := DefaultCoreConfig()
	config.Now = clock.Now
	core := newTestCore(t, f, config)
	ctx := context.Background()

	_, err := core.Resolve(ctx, "alice")
	require.NoError(t, err)

	clock.Advance(DefaultProfileTTL - time.Second)
	_, err = core.Resolve(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.legacyCalls.Load())

	clock.Advance(time.Second)
	_, err = core.Resolve(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.legacyCalls.Load())
}

func TestResolve_PrefersProfileIDOverScore(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = `[
		{"username":"Bob","name":"Old Bob","score":1900,"userkey":"address:0xold"},
		{"username":"bob","name":"Bob","score":100,"userkey":"profileId:5","profileId":5}
	]`
	core := newTestCore(t, f, nil)

	profile, err := core.Resolve(context.Background(), "bob")
	require.NoError(t, err)

	require.NotNil(t, profile.ProfileID)
	assert.Equal(t, int64(5), *profile.ProfileID)
	assert.Equal(t, "Bob", profile.DisplayName)
	assert.Equal(t, 100, profile.Score)
}

func TestResolve_NotFound(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = `[{"username":"someone_else","score":5}]`
	core := newTestCore(t, f, nil)
	ctx := context.Background()

	_, err := core.Resolve(ctx, "nonexistent_handle_zzz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nonexistent_handle_zzz", notFound.Handle)

	_, err = core.Resolve(ctx, "nonexistent_handle_zzz")
	require.Error(t, err)
	assert.Equal(t, int32(2), f.legacyCalls.Load(), "not-found results are not cached")
}

func TestResolve_EmptyHandle(t *testing.T) {
	f := newFakeEthos()
	core := newTestCore(t, f, nil)

	_, err := core.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(0), f.legacyCalls.Load())
}

func TestResolve_MergesEnrichment(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	f.level = "reputable"
	f.v2Values = `[
		{"username":"alice_fan","displayName":"Wrong","xpTotal":1},
		{"username":"ALICE","displayName":"Alice A.","xpTotal":5200,"xpStreakDays":12,"twitterFollowers":800,
		 "stats":{"review":{"received":{"positive":3,"neutral":1,"negative":0}},
		          "vouch":{"given":{"count":2,"amountWeiTotal":"2000000000000000000"}}}}
	]`
	core := newTestCore(t, f, nil)

	profile, err := core.Resolve(context.Background(), "alice")
	require.NoError(t, err)

	assert.False(t, profile.Synthetic)
	assert.Equal(t, types.LevelReputable, profile.Level)
	assert.Equal(t, "Alice A.", profile.DisplayName)
	assert.Equal(t, 5200, profile.TotalXP)
	assert.Equal(t, 12, profile.XPStreakDays)
	assert.Equal(t, 800, profile.TwitterFollowers)
	assert.Equal(t, 4, profile.Stats.Review.Received.Total())
	assert.Equal(t, "2000000000000000000", profile.Stats.Vouch.Given.AmountWeiTotal)
	assert.Equal(t, "0", profile.Stats.Vouch.Received.AmountWeiTotal)

	m := core.DeriveMetrics(profile)
	assert.Equal(t, 2.0, m.EthVouchedGiven)
}

func TestResolve_EnrichmentFailuresDegrade(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	f.levelStatus = http.StatusInternalServerError
	f.v2Status = http.StatusBadGateway
	core := newTestCore(t, f, nil)

	profile, err := core.Resolve(context.Background(), "alice")
	require.NoError(t, err)

	assert.False(t, profile.Synthetic)
	assert.Equal(t, types.LevelUnknown, profile.Level)
	assert.Equal(t, "Alice", profile.DisplayName)
	assert.Equal(t, 1400, profile.Score)
	assert.Equal(t, 0, profile.TotalXP)
}

func TestResolve_NoUserkeySkipsEnrichment(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = `[{"username":"carol","name":"Carol","score":12}]`
	core := newTestCore(t, f, nil)

	profile, err := core.Resolve(context.Background(), "carol")
	require.NoError(t, err)

	assert.Equal(t, types.LevelUnknown, profile.Level)
	assert.Equal(t, int32(0), f.scoreCalls.Load())
	assert.Equal(t, int32(0), f.v2Calls.Load())
}

func TestResolve_SyntheticOnTransportFailure(t *testing.T) {
	f := newFakeEthos()
	f.legacyStatus = http.StatusServiceUnavailable
	fallbacks := &countingFallbacks{}
	config := DefaultCoreConfig()
	config.Observer = fallbacks
	core := newTestCore(t, f, config)
	ctx := context.Background()

	profile, err := core.Resolve(ctx, "Dave")
	require.NoError(t, err)

	assert.True(t, profile.Synthetic)
	assert.Equal(t, "Dave", profile.Handle)
	assert.Equal(t, types.LevelUnknown, profile.Level)
	assert.Equal(t, 0, profile.Score)
	assert.Equal(t, []string{"dave"}, fallbacks.handles)

	again, err := core.Resolve(ctx, "dave")
	require.NoError(t, err)
	assert.True(t, again.Synthetic)
	assert.Equal(t, int32(1), f.legacyCalls.Load(), "synthetic profiles are cached")
}

func TestResolve_SyntheticOnTimeout(t *testing.T) {
	f := newFakeEthos()
	f.gate = make(chan struct{})
	defer close(f.gate)
	server := f.start(t)
	core := NewCore(newTestClient(server, 50*time.Millisecond), nil)

	start := time.Now()
	profile, err := core.Resolve(context.Background(), "erin")
	require.NoError(t, err)

	assert.True(t, profile.Synthetic)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve_FallbackDisabled(t *testing.T) {
	f := newFakeEthos()
	f.legacyStatus = http.StatusServiceUnavailable
	config := DefaultCoreConfig()
	config.OfflineFallback = false
	core := newTestCore(t, f, config)

	_, err := core.Resolve(context.Background(), "dave")
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
}

func TestResolve_CanceledContextIsNotAbsorbed(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	core := newTestCore(t, f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := core.Resolve(ctx, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, core.CacheSizes()[ProfileCacheName])
}

func TestResolve_LeaderCancellationDoesNotFailJoiners(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	f.gate = make(chan struct{})
	core := newTestCore(t, f, nil)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	defer cancelLeader()

	leaderErr := make(chan error, 1)
	go func() {
		_, err := core.Resolve(leaderCtx, "alice")
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return f.legacyCalls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	type outcome struct {
		profile *types.UserProfile
		err     error
	}
	joiner := make(chan outcome, 1)
	go func() {
		p, err := core.Resolve(context.Background(), "alice")
		joiner <- outcome{p, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("leader did not return after cancellation")
	}

	close(f.gate)
	select {
	case got := <-joiner:
		require.NoError(t, got.err)
		assert.False(t, got.profile.Synthetic)
		assert.Equal(t, 1400, got.profile.Score)
	case <-time.After(2 * time.Second):
		t.Fatal("joiner did not return")
	}
	assert.Equal(t, int32(1), f.legacyCalls.Load())
	assert.Equal(t, 1, core.CacheSizes()[ProfileCacheName])
}

func TestResolve_AbandonedLookupStillFillsCache(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	f.gate = make(chan struct{})
	core := newTestCore(t, f, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := core.Resolve(ctx, "alice")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(f.gate)
	require.Eventually(t, func() bool {
		return core.CacheSizes()[ProfileCacheName] == 1
	}, 2*time.Second, 5*time.Millisecond)

	profile, err := core.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, profile.Synthetic)
	assert.Equal(t, int32(1), f.legacyCalls.Load())
}

func TestResolve_LookupTimeoutBoundsSharedLookup(t *testing.T) {
	f := newFakeEthos()
	f.gate = make(chan struct{})
	defer close(f.gate)
	config := DefaultCoreConfig()
	config.Profile = DefaultProfileConfig()
	config.Profile.LookupTimeout = 50 * time.Millisecond
	core := newTestCore(t, f, config)

	start := time.Now()
	profile, err := core.Resolve(context.Background(), "erin")
	require.NoError(t, err)
	assert.True(t, profile.Synthetic)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve_MistypedSiblingValueDoesNotForceSynthetic(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = `[
		{"username":"alice","name":"Alice","score":1400,"userkey":"profileId:7","profileId":7},
		{"username":"alice_fan","name":"Fan","score":20,"description":{"text":"odd"}}
	]`
	core := newTestCore(t, f, nil)

	profile, err := core.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, profile.Synthetic)
	assert.Equal(t, 1400, profile.Score)
}

func TestResolve_MistypedEnrichmentFieldKeepsTheRest(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	f.v2Values = `[{"username":"alice","displayName":"Alice A.","twitterVerified":"true","xpTotal":900,
		"stats":{"review":{"received":{"positive":3}}}}]`
	core := newTestCore(t, f, nil)

	profile, err := core.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", profile.DisplayName)
	assert.Equal(t, 900, profile.TotalXP)
	assert.Equal(t, 3, profile.Stats.Review.Received.Positive)
}

func TestResolve_ConcurrentCallsShareLookup(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	f.gate = make(chan struct{})
	core := newTestCore(t, f, nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*types.UserProfile, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = core.Resolve(context.Background(), "alice")
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "alice", results[i].Handle)
	}
	assert.Equal(t, int32(1), f.legacyCalls.Load())
}

func TestResolve_ReturnsCopies(t *testing.T) {
	f := newFakeEthos()
	f.legacyValues = aliceValues
	core := newTestCore(t, f, nil)
	ctx := context.Background()

	first, err := core.Resolve(ctx, "alice")
	require.NoError(t, err)
	first.Score = 1
	*first.ProfileID = 99

	second, err := core.Resolve(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1400, second.Score)
	assert.Equal(t, int64(7), *second.ProfileID)
}

func TestSelectCandidate(t *testing.T) {
	id := func(v int64) fetch.Number { return fetch.Number{Value: v, Valid: true} }
	score := func(v int64) fetch.Number { return fetch.Number{Value: v, Valid: true} }

	tests := []struct {
		name     string
		users    []fetch.LegacyUser
		handle   string
		wantName string
		wantOK   bool
	}{
		{
			name:   "no exact match",
			users:  []fetch.LegacyUser{{Username: "alicex"}},
			handle: "alice",
		},
		{
			name: "profile id beats score",
			users: []fetch.LegacyUser{
				{Username: "alice", Name: "high", Score: score(2000)},
				{Username: "ALICE", Name: "id", Score: score(1), ProfileID: id(3)},
			},
			handle: "alice", wantName: "id", wantOK: true,
		},
		{
			name: "highest score without ids",
			users: []fetch.LegacyUser{
				{Username: "alice", Name: "low", Score: score(10)},
				{Username: "alice", Name: "high", Score: score(50)},
			},
			handle: "Alice", wantName: "high", wantOK: true,
		},
		{
			name: "first returned on tie",
			users: []fetch.LegacyUser{
				{Username: "alice", Name: "first", Score: score(10)},
				{Username: "alice", Name: "second", Score: score(10)},
			},
			handle: "alice", wantName: "first", wantOK: true,
		},
		{
			name: "first id-bearing among several",
			users: []fetch.LegacyUser{
				{Username: "alice", Name: "a", ProfileID: id(1)},
				{Username: "alice", Name: "b", ProfileID: id(2), Score: score(99)},
			},
			handle: "alice", wantName: "a", wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectCandidate(tt.users, tt.handle)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantName, got.Name)
			}
		})
	}
}
