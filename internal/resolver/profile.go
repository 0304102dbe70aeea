package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/jonathan/profile-compare/internal/cache"
	"github.com/jonathan/profile-compare/internal/fetch"
	"github.com/jonathan/profile-compare/internal/normalize"
	"github.com/jonathan/profile-compare/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultResolveLimit is the legacy search limit used to find a handle.
const DefaultResolveLimit = 10

// DefaultLookupTimeout bounds one shared lookup: the primary search followed
// by the concurrent enrichment calls.
const DefaultLookupTimeout = 15 * time.Second

// ProfileConfig holds configuration for the profile resolver.
type ProfileConfig struct {
	// SearchLimit bounds the legacy search used to find candidates.
	SearchLimit int
	// OfflineFallback returns a synthetic profile instead of an error when the
	// primary lookup fails at the transport level.
	OfflineFallback bool
	// LookupTimeout bounds a shared lookup independently of any one caller.
	LookupTimeout time.Duration
	Logger        *zap.Logger
	Observer      Observer
	Now           func() time.Time
}

// DefaultProfileConfig returns sensible defaults.
func DefaultProfileConfig() *ProfileConfig {
	return &ProfileConfig{
		SearchLimit:     DefaultResolveLimit,
		OfflineFallback: true,
		LookupTimeout:   DefaultLookupTimeout,
		Logger:          zap.NewNop(),
		Now:             time.Now,
	}
}

// ProfileResolver resolves handles into canonical profiles.
type ProfileResolver struct {
	upstream Upstream
	cache    *cache.Store[*types.UserProfile]
	group    singleflight.Group
	config   *ProfileConfig
	logger   *zap.Logger
}

// NewProfileResolver creates a resolver that reads through store.
func NewProfileResolver(upstream Upstream, store *cache.Store[*types.UserProfile], config *ProfileConfig) *ProfileResolver {
	defaults := DefaultProfileConfig()
	if config == nil {
		config = defaults
	}
	if config.SearchLimit <= 0 {
		config.SearchLimit = defaults.SearchLimit
	}
	if config.LookupTimeout <= 0 {
		config.LookupTimeout = defaults.LookupTimeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	return &ProfileResolver{
		upstream: upstream,
		cache:    store,
		config:   config,
		logger:   config.Logger.Named("profile_resolver"),
	}
}

// Resolve returns the profile for handle.
//
// A cached profile is returned without any upstream call. Concurrent calls for
// the same handle share one lookup, which runs detached from every caller's
// cancellation and is bounded by LookupTimeout instead; a caller whose ctx is
// done stops waiting and gets ctx's error while the lookup still completes
// and fills the cache for the others. When no search value matches the handle
// exactly the error matches ErrNotFound. When the primary search fails at the
// transport level a synthetic profile is cached and returned instead of an
// error, unless the fallback is disabled.
func (r *ProfileResolver) Resolve(ctx context.Context, handle string) (*types.UserProfile, error) {
	handle = strings.TrimSpace(handle)
	key := types.NormalizeHandle(handle)
	if key == "" {
		return nil, &NotFoundError{Handle: handle}
	}

	if cached, ok := r.cache.Get(key); ok {
		r.logger.Debug("profile cache hit", zap.String("handle", key))
		return cloneProfile(cached), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &UpstreamError{Message: "lookup canceled", Cause: err}
	}

	ch := r.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.LookupTimeout)
		defer cancel()
		return r.lookup(lookupCtx, handle, key)
	})

	select {
	case <-ctx.Done():
		r.logger.Debug("caller stopped waiting for lookup", zap.String("handle", key))
		return nil, &UpstreamError{Message: "lookup canceled", Cause: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.logger.Debug("joined in-flight lookup", zap.String("handle", key))
		}
		return cloneProfile(res.Val.(*types.UserProfile)), nil
	}
}

func (r *ProfileResolver) lookup(ctx context.Context, handle, key string) (*types.UserProfile, error) {
	users, err := r.upstream.LegacySearch(ctx, handle, r.config.SearchLimit)
	if err != nil {
		return r.fallback(handle, key, err)
	}

	selected, ok := SelectCandidate(users, handle)
	if !ok {
		r.logger.Info("no exact match", zap.String("handle", key), zap.Int("values", len(users)))
		return nil, &NotFoundError{Handle: handle}
	}

	level, rich := r.enrich(ctx, selected)
	profile := normalize.Profile(selected, rich, level, r.config.Now())

	r.cache.Put(key, profile)
	r.logger.Debug("profile resolved",
		zap.String("handle", key),
		zap.String("level", string(profile.Level)),
		zap.Bool("enriched", rich != nil),
	)
	return profile, nil
}

// enrich runs the tier lookup and the v2 lookup concurrently. Both are best
// effort: failures leave the level unknown and the v2 record nil.
func (r *ProfileResolver) enrich(ctx context.Context, selected fetch.LegacyUser) (types.Level, *fetch.V2User) {
	userkey := normalize.Userkey(selected)
	if userkey == "" {
		return types.LevelUnknown, nil
	}

	level := types.LevelUnknown
	var rich *fetch.V2User

	var g errgroup.Group
	g.Go(func() error {
		raw, err := r.upstream.ScoreLevel(ctx, userkey)
		if err != nil {
			r.logger.Warn("tier lookup failed", zap.String("userkey", userkey), zap.Error(err))
			return nil
		}
		level = normalize.ParseLevel(raw)
		return nil
	})
	g.Go(func() error {
		users, err := r.upstream.SearchUsers(ctx, selected.Username)
		if err != nil {
			r.logger.Warn("enrichment lookup failed", zap.String("handle", selected.Username), zap.Error(err))
			return nil
		}
		for i := range users {
			if strings.EqualFold(users[i].Username, selected.Username) {
				rich = &users[i]
				break
			}
		}
		return nil
	})
	_ = g.Wait()

	return level, rich
}

func (r *ProfileResolver) fallback(handle, key string, cause error) (*types.UserProfile, error) {
	if !r.config.OfflineFallback {
		return nil, &UpstreamError{Message: "primary search failed", Cause: cause}
	}

	r.logger.Warn("upstream unavailable, using synthetic profile",
		zap.String("handle", key),
		zap.Error(cause),
	)
	if r.config.Observer != nil {
		r.config.Observer.SyntheticFallback(key)
	}

	profile := normalize.Synthetic(handle, r.config.Now())
	r.cache.Put(key, profile)
	return profile, nil
}

// SelectCandidate picks the legacy value for handle: exact case-insensitive
// matches only, preferring one with a profile ID, then the highest score,
// then the first returned.
func SelectCandidate(users []fetch.LegacyUser, handle string) (fetch.LegacyUser, bool) {
	handle = strings.TrimSpace(handle)

	var exact []fetch.LegacyUser
	for _, u := range users {
		if strings.EqualFold(strings.TrimSpace(u.Username), handle) {
			exact = append(exact, u)
		}
	}
	if len(exact) == 0 {
		return fetch.LegacyUser{}, false
	}

	for _, u := range exact {
		if u.ProfileID.Valid && u.ProfileID.Value > 0 {
			return u, true
		}
	}

	best := exact[0]
	for _, u := range exact[1:] {
		if u.Score.Int() > best.Score.Int() {
			best = u
		}
	}
	return best, true
}

func cloneProfile(p *types.UserProfile) *types.UserProfile {
	if p == nil {
		return nil
	}
	clone := *p
	if p.ProfileID != nil {
		id := *p.ProfileID
		clone.ProfileID = &id
	}
	return &clone
}
