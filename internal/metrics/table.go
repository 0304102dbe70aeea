package metrics

import (
	"github.com/jonathan/profile-compare/internal/types"
)

// Key identifies a comparable metric.
type Key string

// Metric keys in display order.
const (
	KeyScore                   Key = "score"
	KeyTotalXP                 Key = "total_xp"
	KeyXPStreakDays            Key = "xp_streak_days"
	KeyReviewsReceivedTotal    Key = "reviews_received_total"
	KeyReviewsReceivedPositive Key = "reviews_received_positive"
	KeyReviewsReceivedNeutral  Key = "reviews_received_neutral"
	KeyReviewsReceivedNegative Key = "reviews_received_negative"
	KeyReviewsGivenTotal       Key = "reviews_given_total"
	KeyReviewsGivenPositive    Key = "reviews_given_positive"
	KeyReviewsGivenNeutral     Key = "reviews_given_neutral"
	KeyReviewsGivenNegative    Key = "reviews_given_negative"
	KeyVouchesGiven            Key = "vouches_given"
	KeyVouchesReceived         Key = "vouches_received"
	KeyEthVouchedGiven         Key = "eth_vouched_given"
	KeyEthVouchedReceived      Key = "eth_vouched_received"
)

// Definition describes one metric: how to read it, how to label it and the
// bar scale used when both sides are zero.
type Definition struct {
	Key    Key
	Label  string
	Max    float64
	Format Format
	Value  func(m *types.DisplayMetrics) float64
	// Exact returns the exact decimal text when the float value may be rounded.
	Exact func(m *types.DisplayMetrics) string
}

// Table lists every comparable metric in display order.
var Table = []Definition{
	{Key: KeyScore, Label: "Ethos Score", Max: 2000, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.Score) }},
	{Key: KeyTotalXP, Label: "Total XP", Max: 100000, Format: FormatCompact,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.TotalXP) }},
	{Key: KeyXPStreakDays, Label: "XP Streak Days", Max: 365, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.XPStreakDays) }},
	{Key: KeyReviewsReceivedTotal, Label: "Total Reviews (Received)", Max: 1000, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.ReviewsReceived.Total) }},
	{Key: KeyReviewsReceivedPositive, Label: "Positive Reviews (Received)", Max: 500, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.ReviewsReceived.Positive) }},
	{Key: KeyReviewsReceivedNeutral, Label: "Neutral Reviews (Received)", Max: 200, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.ReviewsReceived.Neutral) }},
	{Key: KeyReviewsReceivedNegative, Label: "Negative Reviews (Received)", Max: 100, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.ReviewsReceived.Negative) }},
	{Key: KeyReviewsGivenTotal, Label: "Total Reviews (Given)", Max: 1000, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.ReviewsGiven.Total) }},
	{Key: KeyReviewsGivenPositive, Label: "Positive Reviews (Given)", Max: 500, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.ReviewsGiven.Positive) }},
	{Key: KeyReviewsGivenNeutral, Label: "Neutral Reviews (Given)", Max: 200, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.ReviewsGiven.Neutral) }},
	{Key: KeyReviewsGivenNegative, Label: "Negative Reviews (Given)", Max: 100, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.ReviewsGiven.Negative) }},
	{Key: KeyVouchesGiven, Label: "Vouches (Given)", Max: 500, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.VouchesGiven) }},
	{Key: KeyVouchesReceived, Label: "Vouches (Received)", Max: 500, Format: FormatInteger,
		Value: func(m *types.DisplayMetrics) float64 { return float64(m.VouchesReceived) }},
	{Key: KeyEthVouchedGiven, Label: "ETH Vouch (Given)", Max: 100, Format: FormatEther,
		Value: func(m *types.DisplayMetrics) float64 { return m.EthVouchedGiven },
		Exact: func(m *types.DisplayMetrics) string { return m.EthVouchedGivenExact }},
	{Key: KeyEthVouchedReceived, Label: "ETH Vouch (Received)", Max: 100, Format: FormatEther,
		Value: func(m *types.DisplayMetrics) float64 { return m.EthVouchedReceived },
		Exact: func(m *types.DisplayMetrics) string { return m.EthVouchedReceivedExact }},
}

// Lookup returns the definition for key.
func Lookup(key Key) (Definition, bool) {
	for _, def := range Table {
		if def.Key == key {
			return def, true
		}
	}
	return Definition{}, false
}

// Read returns the value of d for m, or 0 when m is nil.
func (d Definition) Read(m *types.DisplayMetrics) float64 {
	if m == nil || d.Value == nil {
		return 0
	}
	return d.Value(m)
}

// Display returns the formatted value of d for m.
func (d Definition) Display(m *types.DisplayMetrics) string {
	if m != nil && d.Exact != nil {
		return FormatExact(d.Format, d.Exact(m))
	}
	return FormatValue(d.Format, d.Read(m))
}

// Compare builds one row per table entry. A nil side reads as zero and leaves
// the winner unset.
func Compare(left, right *types.DisplayMetrics) []types.MetricRow {
	rows := make([]types.MetricRow, 0, len(Table))
	for _, def := range Table {
		l := def.Read(left)
		r := def.Read(right)

		row := types.MetricRow{
			Key:   string(def.Key),
			Label: def.Label,
			Left:  l,
			Right: r,
		}
		row.LeftPercent, row.RightPercent = RelativePercents(l, r, def.Max)

		if left != nil && right != nil {
			switch {
			case l > r:
				row.Winner = types.WinnerLeft
			case r > l:
				row.Winner = types.WinnerRight
			default:
				row.Winner = types.WinnerDraw
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// RelativePercents scales both values against the larger of the two, falling
// back to fallbackMax when both are zero. Results are clamped to [0, 100].
func RelativePercents(left, right, fallbackMax float64) (float64, float64) {
	scale := left
	if right > scale {
		scale = right
	}
	if scale <= 0 {
		scale = fallbackMax
	}
	if scale <= 0 {
		return 0, 0
	}
	return clampPercent(left / scale * 100), clampPercent(right / scale * 100)
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
