package resolver

import (
	"context"
	"time"

	"github.com/jonathan/profile-compare/internal/cache"
	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/types"
	"go.uber.org/zap"
)

// Cache names used in logs and metrics.
const (
	ProfileCacheName = "profile"
	SearchCacheName  = "search"
)

// Default cache windows.
const (
	DefaultProfileTTL = 5 * time.Minute
	DefaultSearchTTL  = 30 * time.Second
)

// CoreConfig holds configuration for Core.
type CoreConfig struct {
	ProfileTTL      time.Duration
	SearchTTL       time.Duration
	OfflineFallback bool
	Profile         *ProfileConfig
	Search          *SearchConfig
	CacheObserver   cache.Observer
	Observer        Observer
	Logger          *zap.Logger
	Now             func() time.Time
}

// DefaultCoreConfig returns sensible defaults.
func DefaultCoreConfig() *CoreConfig {
	return &CoreConfig{
		ProfileTTL:      DefaultProfileTTL,
		SearchTTL:       DefaultSearchTTL,
		OfflineFallback: true,
		Logger:          zap.NewNop(),
		Now:             time.Now,
	}
}

// Core is the facade the presentation layer talks to. It owns one profile
// cache and one search cache for its lifetime.
type Core struct {
	profiles     *ProfileResolver
	search       *SearchResolver
	profileCache *cache.Store[*types.UserProfile]
	searchCache  *cache.Store[[]types.SearchCandidate]
	logger       *zap.Logger
}

// NewCore wires both resolvers and their caches around upstream.
func NewCore(upstream Upstream, config *CoreConfig) *Core {
	if config == nil {
		config = DefaultCoreConfig()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	profileCache := cache.New[*types.UserProfile](cache.Config{
		Name:     ProfileCacheName,
		TTL:      config.ProfileTTL,
		Now:      config.Now,
		Observer: config.CacheObserver,
	})
	searchCache := cache.New[[]types.SearchCandidate](cache.Config{
		Name:     SearchCacheName,
		TTL:      config.SearchTTL,
		Now:      config.Now,
		Observer: config.CacheObserver,
	})

	profileConfig := config.Profile
	if profileConfig == nil {
		profileConfig = DefaultProfileConfig()
		profileConfig.OfflineFallback = config.OfflineFallback
	}
	if profileConfig.Logger == nil {
		profileConfig.Logger = config.Logger
	}
	if profileConfig.Observer == nil {
		profileConfig.Observer = config.Observer
	}
	if profileConfig.Now == nil {
		profileConfig.Now = config.Now
	}

	searchConfig := config.Search
	if searchConfig == nil {
		searchConfig = DefaultSearchConfig()
	}
	if searchConfig.Logger == nil {
		searchConfig.Logger = config.Logger
	}

	return &Core{
		profiles:     NewProfileResolver(upstream, profileCache, profileConfig),
		search:       NewSearchResolver(upstream, searchCache, searchConfig),
		profileCache: profileCache,
		searchCache:  searchCache,
		logger:       config.Logger,
	}
}

// Resolve returns the profile for handle. See ProfileResolver.Resolve.
func (c *Core) Resolve(ctx context.Context, handle string) (*types.UserProfile, error) {
	return c.profiles.Resolve(ctx, handle)
}

// Search returns typeahead candidates for query. See SearchResolver.Search.
func (c *Core) Search(ctx context.Context, query string) []types.SearchCandidate {
	return c.search.Search(ctx, query)
}

// DeriveMetrics returns display metrics for profile.
func (c *Core) DeriveMetrics(profile *types.UserProfile) types.DisplayMetrics {
	return metrics.Derive(profile)
}

// ClearCache drops every cached profile and search result.
func (c *Core) ClearCache() {
	c.profileCache.Clear()
	c.searchCache.Clear()
	c.logger.Info("caches cleared")
}

// CacheSizes returns the number of entries held by each cache.
func (c *Core) CacheSizes() map[string]int {
	return map[string]int{
		ProfileCacheName: c.profileCache.Len(),
		SearchCacheName:  c.searchCache.Len(),
	}
}
