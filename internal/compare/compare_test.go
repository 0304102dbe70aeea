package compare

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/profile-compare/internal/fetch"
	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/resolver"
	"github.com/jonathan/profile-compare/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	profiles map[string]*types.UserProfile
	errs     map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *stubResolver) Resolve(ctx context.Context, handle string) (*types.UserProfile, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := s.errs[handle]; ok {
		return nil, err
	}
	return s.profiles[handle], nil
}

func TestRun_BothSidesResolved(t *testing.T) {
	stub := &stubResolver{
		profiles: map[string]*types.UserProfile{
			"alice": {Handle: "alice", Score: 1800, TotalXP: 100},
			"bob":   {Handle: "bob", Score: 900, TotalXP: 400},
		},
		delay: 20 * time.Millisecond,
	}

	c, err := Run(context.Background(), stub, " alice ", "bob")
	require.NoError(t, err)

	assert.NotEqual(t, "", c.ID.String())
	assert.Equal(t, "alice", c.Left.Handle)
	assert.True(t, c.Left.Ready())
	assert.True(t, c.Right.Ready())
	assert.Len(t, c.Rows, len(metrics.Table))
	assert.Equal(t, int32(2), stub.peak.Load(), "sides resolve concurrently")

	assert.Equal(t, types.WinnerLeft, c.Rows[0].Winner)
	assert.Equal(t, types.WinnerRight, c.Rows[1].Winner)

	winner, leftWins, rightWins := Leader(c)
	assert.Equal(t, types.WinnerDraw, winner)
	assert.Equal(t, 1, leftWins)
	assert.Equal(t, 1, rightWins)
}

func TestRun_NotFoundSideIsReportedPerSide(t *testing.T) {
	stub := &stubResolver{
		profiles: map[string]*types.UserProfile{"alice": {Handle: "alice", Score: 10}},
		errs:     map[string]error{"ghost": &resolver.NotFoundError{Handle: "ghost"}},
	}

	c, err := Run(context.Background(), stub, "alice", "ghost")
	require.NoError(t, err)

	assert.True(t, c.Left.Ready())
	assert.False(t, c.Right.Ready())
	assert.Equal(t, "User not found: ghost", c.Right.Error)
	for _, row := range c.Rows {
		assert.Equal(t, types.WinnerNone, row.Winner)
	}

	winner, _, _ := Leader(c)
	assert.Equal(t, types.WinnerNone, winner)
}

func TestRun_OtherFailuresUseGenericMessage(t *testing.T) {
	stub := &stubResolver{
		profiles: map[string]*types.UserProfile{"alice": {Handle: "alice"}},
		errs: map[string]error{"bob": &resolver.UpstreamError{
			Message: "primary search failed",
			Cause:   &fetch.Error{URL: "http://x", Message: "HTTP status 503", StatusCode: 503},
		}},
	}

	c, err := Run(context.Background(), stub, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "Profile unavailable, try again later", c.Right.Error)
}

func TestRun_InvalidRequest(t *testing.T) {
	_, err := Run(context.Background(), &stubResolver{}, "", "bob")
	require.Error(t, err)

	var compareErr *Error
	assert.ErrorAs(t, err, &compareErr)
}

func TestRun_CanceledContext(t *testing.T) {
	stub := &stubResolver{delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Run(ctx, stub, "alice", "bob")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSideMessage(t *testing.T) {
	assert.Equal(t, "User not found: zed", SideMessage(&resolver.NotFoundError{Handle: "zed"}))
	assert.Equal(t, "Profile unavailable, try again later", SideMessage(errors.New("boom")))
}
