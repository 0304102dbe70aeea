package resolver

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/profile-compare/internal/cache"
	"github.com/jonathan/profile-compare/internal/normalize"
	"github.com/jonathan/profile-compare/internal/types"
	"go.uber.org/zap"
)

// Search defaults.
const (
	DefaultMinQueryLength = 3
	DefaultSearchLimit    = 20
	DefaultMaxResults     = 10
	DefaultMaxHandleLength = 20
)

// handlePattern matches queries shaped like a single handle.
var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// SearchConfig holds configuration for the search resolver.
type SearchConfig struct {
	MinQueryLength int
	// FetchLimit bounds the legacy search request.
	FetchLimit int
	// MaxResults bounds the returned sequence.
	MaxResults int
	// MaxHandleLength is the longest handle-shaped query treated as an exact handle.
	MaxHandleLength int
	Logger         *zap.Logger
}

// DefaultSearchConfig returns sensible defaults.
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		MinQueryLength: DefaultMinQueryLength,
		FetchLimit:     DefaultSearchLimit,
		MaxResults:     DefaultMaxResults,
		MaxHandleLength: DefaultMaxHandleLength,
		Logger:         zap.NewNop(),
	}
}

// SearchResolver serves typeahead suggestions.
type SearchResolver struct {
	upstream Upstream
	cache    *cache.Store[[]types.SearchCandidate]
	config   *SearchConfig
	logger   *zap.Logger
}

// NewSearchResolver creates a search resolver that caches through store.
func NewSearchResolver(upstream Upstream, store *cache.Store[[]types.SearchCandidate], config *SearchConfig) *SearchResolver {
	defaults := DefaultSearchConfig()
	if config == nil {
		config = defaults
	}
	if config.MinQueryLength <= 0 {
		config.MinQueryLength = defaults.MinQueryLength
	}
	if config.FetchLimit <= 0 {
		config.FetchLimit = defaults.FetchLimit
	}
	if config.MaxResults <= 0 {
		config.MaxResults = defaults.MaxResults
	}
	if config.MaxHandleLength <= 0 {
		config.MaxHandleLength = defaults.MaxHandleLength
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	return &SearchResolver{
		upstream: upstream,
		cache:    store,
		config:   config,
		logger:   config.Logger.Named("search_resolver"),
	}
}

// Search returns ranked candidates for query. Queries shorter than the
// minimum length return an empty sequence without a network call. Upstream
// failures also yield an empty sequence.
func (s *SearchResolver) Search(ctx context.Context, query string) []types.SearchCandidate {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.config.MinQueryLength {
		return []types.SearchCandidate{}
	}

	key := strings.ToLower(query)
	exact := s.IsExactHandle(query)
	if !exact {
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debug("search cache hit", zap.String("query", key))
			return cloneCandidates(cached)
		}
	}

	users, err := s.upstream.LegacySearch(ctx, query, s.config.FetchLimit)
	if err != nil {
		s.logger.Warn("search failed", zap.String("query", key), zap.Error(err))
		return []types.SearchCandidate{}
	}

	candidates := make([]types.SearchCandidate, 0, len(users))
	for _, u := range users {
		if strings.TrimSpace(u.Username) == "" {
			continue
		}
		candidates = append(candidates, normalize.Candidate(u))
	}

	result := Rank(Dedupe(candidates), query, s.config.MaxResults)

	if !exact {
		s.cache.Put(key, cloneCandidates(result))
	}
	s.logger.Debug("search resolved",
		zap.String("query", key),
		zap.Int("values", len(users)),
		zap.Int("results", len(result)),
		zap.Bool("exact", exact),
	)
	return result
}

// IsExactHandle reports whether query looks like a complete handle, in which
// case cached results are neither read nor written.
func (s *SearchResolver) IsExactHandle(query string) bool {
	n := utf8.RuneCountInString(query)
	return n >= s.config.MinQueryLength && n <= s.config.MaxHandleLength && handlePattern.MatchString(query)
}

// Dedupe keeps one candidate per case-insensitive handle, in first-seen
// position, replacing an earlier variant without a profile ID by a later one
// that has it.
func Dedupe(candidates []types.SearchCandidate) []types.SearchCandidate {
	index := make(map[string]int, len(candidates))
	out := make([]types.SearchCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := types.NormalizeHandle(c.Handle)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, c)
			continue
		}
		if c.HasProfileID() && !out[i].HasProfileID() {
			out[i] = c
		}
	}
	return out
}

// Rank filters candidates to those matching query and orders them: exact
// handle matches first, ID-bearing first among exact matches, then by
// descending score. At most limit candidates are returned.
func Rank(candidates []types.SearchCandidate, query string, limit int) []types.SearchCandidate {
	q := strings.ToLower(strings.TrimSpace(query))

	matching := make([]types.SearchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if matches(c, q) {
			matching = append(matching, c)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		a, b := matching[i], matching[j]
		aExact := strings.ToLower(a.Handle) == q
		bExact := strings.ToLower(b.Handle) == q
		if aExact != bExact {
			return aExact
		}
		if aExact && a.HasProfileID() != b.HasProfileID() {
			return a.HasProfileID()
		}
		return a.Score > b.Score
	})

	if limit > 0 && len(matching) > limit {
		matching = matching[:limit]
	}
	return matching
}

func matches(c types.SearchCandidate, q string) bool {
	handle := strings.ToLower(c.Handle)
	return handle == q ||
		strings.HasPrefix(handle, q) ||
		strings.HasPrefix(strings.ToLower(c.DisplayName), q) ||
		strings.Contains(strings.ToLower(c.Description), q)
}

// cloneCandidates copies candidates deeply enough that callers cannot reach
// the cached profile IDs or userkey slices.
func cloneCandidates(in []types.SearchCandidate) []types.SearchCandidate {
	out := make([]types.SearchCandidate, len(in))
	for i, c := range in {
		if c.ProfileID != nil {
			id := *c.ProfileID
			c.ProfileID = &id
		}
		if c.Userkeys != nil {
			keys := make([]string, len(c.Userkeys))
			copy(keys, c.Userkeys)
			c.Userkeys = keys
		}
		out[i] = c
	}
	return out
}
