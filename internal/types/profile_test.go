package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewCounts_Total(t *testing.T) {
	tests := []struct {
		name     string
		counts   ReviewCounts
		expected int
	}{
		{"zero", ReviewCounts{}, 0},
		{"positive only", ReviewCounts{Positive: 7}, 7},
		{"mixed", ReviewCounts{Positive: 10, Neutral: 4, Negative: 2}, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.counts.Total())
		})
	}
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "vitalik", NormalizeHandle("Vitalik"))
	assert.Equal(t, "vitalik", NormalizeHandle("  VITALIK "))
	assert.Equal(t, "", NormalizeHandle("   "))
}

func TestSearchCandidate_HasProfileID(t *testing.T) {
	id := int64(42)
	assert.True(t, SearchCandidate{ProfileID: &id}.HasProfileID())
	assert.False(t, SearchCandidate{}.HasProfileID())
}

func TestUserProfile_JSONShape(t *testing.T) {
	profile := UserProfile{
		Handle: "alice",
		Level:  LevelReputable,
		Stats: ProfileStats{
			Vouch: VouchStats{
				Given: VouchTotals{Count: 1, AmountWeiTotal: "1000000000000000000"},
			},
		},
		Synthetic: true,
	}

	jsonBytes, err := json.Marshal(profile)
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"handle":"alice"`)
	assert.Contains(t, string(jsonBytes), `"level":"reputable"`)
	assert.Contains(t, string(jsonBytes), `"amount_wei_total":"1000000000000000000"`)
	assert.Contains(t, string(jsonBytes), `"synthetic":true`)
	assert.NotContains(t, string(jsonBytes), `"profile_id"`)
}

func TestCompareRequest_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := &CompareRequest{Left: "alice", Right: "bob"}
		assert.NoError(t, req.Validate())
	})

	t.Run("missing right", func(t *testing.T) {
		req := &CompareRequest{Left: "alice"}
		assert.Error(t, req.Validate())
	})

	t.Run("too long", func(t *testing.T) {
		long := make([]byte, 101)
		for i := range long {
			long[i] = 'a'
		}
		req := &CompareRequest{Left: string(long), Right: "bob"}
		assert.Error(t, req.Validate())
	})
}

func TestComparisonSide_Ready(t *testing.T) {
	assert.False(t, ComparisonSide{Handle: "alice"}.Ready())
	assert.True(t, ComparisonSide{Profile: &UserProfile{}, Metrics: &DisplayMetrics{}}.Ready())
}
