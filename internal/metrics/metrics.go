// Package metrics derives display-ready comparative metrics from a normalized profile.
package metrics

import (
	"github.com/jonathan/profile-compare/internal/normalize"
	"github.com/jonathan/profile-compare/internal/types"
)

// Derive sums review polarities into totals, converts vouch amounts from wei
// to ether and passes the remaining counters through. A nil profile yields zeros.
func Derive(profile *types.UserProfile) types.DisplayMetrics {
	if profile == nil {
		return types.DisplayMetrics{
			Level:                   types.LevelUnknown,
			EthVouchedGivenExact:    "0",
			EthVouchedReceivedExact: "0",
		}
	}

	level := profile.Level
	if level == "" {
		level = types.LevelUnknown
	}

	given := profile.Stats.Vouch.Given
	received := profile.Stats.Vouch.Received

	return types.DisplayMetrics{
		Score:                   nonNegative(profile.Score),
		Level:                   level,
		TotalXP:                 nonNegative(profile.TotalXP),
		XPStreakDays:            nonNegative(profile.XPStreakDays),
		TwitterFollowers:        nonNegative(profile.TwitterFollowers),
		ReviewsReceived:         breakdown(profile.Stats.Review.Received),
		ReviewsGiven:            breakdown(profile.Stats.Review.Given),
		VouchesGiven:            nonNegative(given.Count),
		VouchesReceived:         nonNegative(received.Count),
		EthVouchedGiven:         normalize.EtherFloat(given.AmountWeiTotal),
		EthVouchedReceived:      normalize.EtherFloat(received.AmountWeiTotal),
		EthVouchedGivenExact:    normalize.EtherString(given.AmountWeiTotal),
		EthVouchedReceivedExact: normalize.EtherString(received.AmountWeiTotal),
		Synthetic:               profile.Synthetic,
	}
}

func breakdown(counts types.ReviewCounts) types.ReviewBreakdown {
	counts = types.ReviewCounts{
		Positive: nonNegative(counts.Positive),
		Neutral:  nonNegative(counts.Neutral),
		Negative: nonNegative(counts.Negative),
	}
	return types.ReviewBreakdown{
		Total:    counts.Total(),
		Positive: counts.Positive,
		Neutral:  counts.Neutral,
		Negative: counts.Negative,
	}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
