package resolver

import (
	"context"

	"github.com/jonathan/profile-compare/internal/fetch"
)

// Upstream is the subset of the reputation API the resolvers depend on.
// *fetch.Client satisfies it.
type Upstream interface {
	LegacySearch(ctx context.Context, query string, limit int) ([]fetch.LegacyUser, error)
	ScoreLevel(ctx context.Context, userkey string) (string, error)
	SearchUsers(ctx context.Context, query string) ([]fetch.V2User, error)
}

// Observer is notified when a synthetic profile replaces a failed lookup.
type Observer interface {
	SyntheticFallback(handle string)
}

var _ Upstream = (*fetch.Client)(nil)
