//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(ctx))
	return db
}

func testComparison(left, right string) *types.Comparison {
	lp := &types.UserProfile{Handle: left, Score: 1500, Level: types.LevelReputable}
	rp := &types.UserProfile{Handle: right, Score: 1200, Level: types.LevelNeutral}
	lm, rm := metrics.Derive(lp), metrics.Derive(rp)
	return &types.Comparison{
		ID:        uuid.New(),
		Left:      types.ComparisonSide{Handle: left, Profile: lp, Metrics: &lm},
		Right:     types.ComparisonSide{Handle: right, Profile: rp, Metrics: &rm},
		Rows:      metrics.Compare(&lm, &rm),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestComparisonRoundTrip_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	c := testComparison("alice-"+uuid.NewString()[:8], "bob")
	require.NoError(t, db.SaveComparison(ctx, c))
	defer func() { _ = db.DeleteComparison(ctx, c.ID) }()

	got, err := db.GetComparison(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Left.Handle, got.Left.Handle)
	assert.Len(t, got.Rows, len(c.Rows))
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, db.SaveComparison(ctx, c), "saving twice replaces the row")
}

func TestGetComparison_Unknown_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	got, err := db.GetComparison(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListRecentComparisons_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	handle := "list-" + uuid.NewString()[:8]
	first := testComparison(handle, "bob")
	second := testComparison("carol", handle)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	for _, c := range []*types.Comparison{first, second} {
		require.NoError(t, db.SaveComparison(ctx, c))
		defer func(id uuid.UUID) { _ = db.DeleteComparison(ctx, id) }(c.ID)
	}

	summaries, err := db.ListRecentComparisons(ctx, handle, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second.ID, summaries[0].ID)
	assert.Equal(t, first.ID, summaries[1].ID)
	assert.Equal(t, types.WinnerLeft, summaries[1].Winner)
	assert.Equal(t, types.WinnerLeft, summaries[0].Winner)

	all, err := db.ListRecentComparisons(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
