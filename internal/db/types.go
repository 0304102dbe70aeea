package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profile-compare/internal/types"
)

// DefaultListLimit caps ListRecentComparisons when no limit is given.
const DefaultListLimit = 20

// MaxListLimit is the largest page ListRecentComparisons returns.
const MaxListLimit = 100

// ComparisonSummary is a saved comparison without its content.
type ComparisonSummary struct {
	ID          uuid.UUID    `json:"id"`
	LeftHandle  string       `json:"left_handle"`
	RightHandle string       `json:"right_handle"`
	Winner      types.Winner `json:"winner"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ClampLimit bounds a requested page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
