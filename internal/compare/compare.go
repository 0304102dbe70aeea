// Package compare resolves two handles side by side and builds the metric rows
// shown in a comparison.
package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/resolver"
	"github.com/jonathan/profile-compare/internal/types"
	"golang.org/x/sync/errgroup"
)

// Resolver resolves a handle into a profile. *resolver.Core satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, handle string) (*types.UserProfile, error)
}

// Error represents a comparison that could not be built at all.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("compare error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("compare error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Run resolves left and right concurrently and returns the comparison.
// A side that fails to resolve keeps its error message and reads as zero in
// the rows; Run itself only fails when ctx is done or the request is invalid.
func Run(ctx context.Context, r Resolver, left, right string) (*types.Comparison, error) {
	req := types.CompareRequest{Left: strings.TrimSpace(left), Right: strings.TrimSpace(right)}
	if err := req.Validate(); err != nil {
		return nil, &Error{Message: "invalid compare request", Cause: err}
	}

	sides := [2]types.ComparisonSide{{Handle: req.Left}, {Handle: req.Right}}

	g, gctx := errgroup.WithContext(ctx)
	for i := range sides {
		side := &sides[i]
		g.Go(func() error {
			profile, err := r.Resolve(gctx, side.Handle)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				side.Error = SideMessage(err)
				return nil
			}
			m := metrics.Derive(profile)
			side.Profile = profile
			side.Metrics = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &Error{Message: "comparison interrupted", Cause: err}
	}

	return Build(sides[0], sides[1]), nil
}

// Build assembles a comparison from two resolved sides.
func Build(left, right types.ComparisonSide) *types.Comparison {
	return &types.Comparison{
		ID:        uuid.New(),
		Left:      left,
		Right:     right,
		Rows:      metrics.Compare(left.Metrics, right.Metrics),
		CreatedAt: time.Now().UTC(),
	}
}

// SideMessage is the user-facing error for a side that failed to resolve.
func SideMessage(err error) string {
	var notFound *resolver.NotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("User not found: %s", notFound.Handle)
	}
	return "Profile unavailable, try again later"
}

// Leader returns which side wins more rows. Rows where a side is missing do
// not count.
func Leader(c *types.Comparison) (types.Winner, int, int) {
	var leftWins, rightWins int
	for _, row := range c.Rows {
		switch row.Winner {
		case types.WinnerLeft:
			leftWins++
		case types.WinnerRight:
			rightWins++
		}
	}
	switch {
	case !c.Left.Ready() || !c.Right.Ready():
		return types.WinnerNone, leftWins, rightWins
	case leftWins > rightWins:
		return types.WinnerLeft, leftWins, rightWins
	case rightWins > leftWins:
		return types.WinnerRight, leftWins, rightWins
	default:
		return types.WinnerDraw, leftWins, rightWins
	}
}
