package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ReviewBreakdown is a review direction with its total precomputed.
type ReviewBreakdown struct {
	Total    int `json:"total"`
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// DisplayMetrics holds display-ready values derived from a UserProfile.
type DisplayMetrics struct {
	Score            int             `json:"score"`
	Level            Level           `json:"level"`
	TotalXP          int             `json:"total_xp"`
	XPStreakDays     int             `json:"xp_streak_days"`
	TwitterFollowers int             `json:"twitter_followers"`
	ReviewsReceived  ReviewBreakdown `json:"reviews_received"`
	ReviewsGiven     ReviewBreakdown `json:"reviews_given"`
	VouchesGiven     int             `json:"vouches_given"`
	VouchesReceived  int             `json:"vouches_received"`

	// ETH amounts as floats for charts, and as exact decimal strings.
	EthVouchedGiven         float64 `json:"eth_vouched_given"`
	EthVouchedReceived      float64 `json:"eth_vouched_received"`
	EthVouchedGivenExact    string  `json:"eth_vouched_given_exact"`
	EthVouchedReceivedExact string  `json:"eth_vouched_received_exact"`

	Synthetic bool `json:"synthetic"`
}

// Winner identifies which side of a comparison row leads.
type Winner string

const (
	WinnerLeft  Winner = "left"
	WinnerRight Winner = "right"
	WinnerDraw  Winner = "draw"
	// WinnerNone is used when one side is missing.
	WinnerNone Winner = ""
)

// MetricRow is one metric compared across both sides.
type MetricRow struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	Left         float64 `json:"left"`
	Right        float64 `json:"right"`
	LeftPercent  float64 `json:"left_percent"`
	RightPercent float64 `json:"right_percent"`
	Winner       Winner  `json:"winner,omitempty"`
}

// ComparisonSide is the resolved state of one comparison slot.
type ComparisonSide struct {
	Handle  string          `json:"handle"`
	Profile *UserProfile    `json:"profile,omitempty"`
	Metrics *DisplayMetrics `json:"metrics,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Ready reports whether the side resolved to a profile.
func (s ComparisonSide) Ready() bool {
	return s.Profile != nil && s.Metrics != nil
}

// Comparison is the serializable side-by-side result handed to export and share collaborators.
type Comparison struct {
	ID        uuid.UUID      `json:"id"`
	Left      ComparisonSide `json:"left"`
	Right     ComparisonSide `json:"right"`
	Rows      []MetricRow    `json:"rows"`
	CreatedAt time.Time      `json:"created_at"`
}

// CompareRequest represents a request to compare two handles.
type CompareRequest struct {
	Left  string `json:"left" validate:"required,max=100"`
	Right string `json:"right" validate:"required,max=100"`
}

// Validate validates the CompareRequest using the validator.
func (r *CompareRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
