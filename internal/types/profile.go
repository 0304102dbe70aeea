// Package types provides type definitions for structured data used throughout the profile comparison system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"
)

// Level is the coarse reputation tier reported by the score service.
type Level string

const (
	// LevelUnknown is used whenever the tier lookup was skipped or failed
	LevelUnknown       Level = "unknown"
	LevelUntrusted     Level = "untrusted"
	LevelQuestionable  Level = "questionable"
	LevelNeutral       Level = "neutral"
	LevelKnown         Level = "known"
	LevelEstablished   Level = "established"
	LevelReputable     Level = "reputable"
	LevelExemplary     Level = "exemplary"
	LevelDistinguished Level = "distinguished"
	LevelRevered       Level = "revered"
	LevelRenowned      Level = "renowned"
)

// KnownLevels lists every tier in ascending order, starting with LevelUnknown.
var KnownLevels = []Level{
	LevelUnknown,
	LevelUntrusted,
	LevelQuestionable,
	LevelNeutral,
	LevelKnown,
	LevelEstablished,
	LevelReputable,
	LevelExemplary,
	LevelDistinguished,
	LevelRevered,
	LevelRenowned,
}

// ReviewCounts holds review counts for one direction, split by polarity.
type ReviewCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total returns positive + neutral + negative.
func (r ReviewCounts) Total() int {
	return r.Positive + r.Neutral + r.Negative
}

// ReviewStats groups review counts received and given.
type ReviewStats struct {
	Received ReviewCounts `json:"received"`
	Given    ReviewCounts `json:"given"`
}

// VouchTotals holds a vouch count and the vouched value in wei.
// AmountWeiTotal is always a non-negative base-10 integer string.
type VouchTotals struct {
	Count          int    `json:"count"`
	AmountWeiTotal string `json:"amount_wei_total"`
}

// VouchStats groups vouch totals given and received.
type VouchStats struct {
	Given    VouchTotals `json:"given"`
	Received VouchTotals `json:"received"`
}

// ProfileStats holds the nested counters of a profile.
type ProfileStats struct {
	Review ReviewStats `json:"review"`
	Vouch  VouchStats  `json:"vouch"`
}

// UserProfile is the canonical, normalized user record.
type UserProfile struct {
	Handle           string       `json:"handle"`
	DisplayName      string       `json:"display_name"`
	AvatarURL        string       `json:"avatar_url"`
	Bio              string       `json:"bio"`
	Userkey          string       `json:"userkey,omitempty"`
	ProfileID        *int64       `json:"profile_id,omitempty"`
	Score            int          `json:"score"`
	Level            Level        `json:"level"`
	TotalXP          int          `json:"total_xp"`
	XPStreakDays     int          `json:"xp_streak_days"`
	TwitterFollowers int          `json:"twitter_followers"`
	TwitterVerified  bool         `json:"twitter_verified"`
	Stats            ProfileStats `json:"stats"`

	// Synthetic is true for placeholder profiles built while the upstream was unreachable.
	Synthetic  bool      `json:"synthetic"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// SearchCandidate is a partial identity returned by the legacy search endpoint.
type SearchCandidate struct {
	ProfileID      *int64   `json:"profile_id,omitempty"`
	Handle         string   `json:"handle"`
	DisplayName    string   `json:"display_name"`
	AvatarURL      string   `json:"avatar_url"`
	Score          int      `json:"score"`
	Userkeys       []string `json:"userkeys"`
	Description    string   `json:"description,omitempty"`
	PrimaryAddress string   `json:"primary_address,omitempty"`
}

// HasProfileID reports whether the candidate carries a stable profile identifier.
func (c SearchCandidate) HasProfileID() bool {
	return c.ProfileID != nil
}

// NormalizeHandle returns the cache key form of a handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
