// Package normalize maps the upstream legacy search and v2 user shapes into
// the canonical types.UserProfile and types.SearchCandidate records.
//
// Field resolution prefers the v2 value when it is present and non-default,
// then the legacy value, then a hard default. Malformed values are replaced
// with defaults; nothing in this package returns an error.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/profile-compare/internal/fetch"
	"github.com/jonathan/profile-compare/internal/types"
)

// SyntheticUserkeyPrefix marks the userkey of placeholder profiles.
const SyntheticUserkeyPrefix = "synthetic:"

// ParseLevel maps a tier string from the score service onto a known Level.
// Unrecognized or empty values become LevelUnknown.
func ParseLevel(raw string) types.Level {
	level := types.Level(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range types.KnownLevels {
		if level == known {
			return known
		}
	}
	return types.LevelUnknown
}

// Userkey returns the internal user key for a legacy record. Records without
// one fall back to a key derived from the profile ID, or "" when neither exists.
func Userkey(u fetch.LegacyUser) string {
	if key := strings.TrimSpace(u.Userkey); key != "" {
		return key
	}
	if u.ProfileID.Valid && u.ProfileID.Value > 0 {
		return "profileId:" + strconv.FormatInt(u.ProfileID.Value, 10)
	}
	return ""
}

// Profile builds a UserProfile from the selected legacy record, the matching
// v2 record (nil when enrichment failed or found nothing) and the tier.
func Profile(legacy fetch.LegacyUser, rich *fetch.V2User, level types.Level, now time.Time) *types.UserProfile {
	profile := &types.UserProfile{
		Handle:      legacy.Username,
		DisplayName: strings.TrimSpace(legacy.Name),
		AvatarURL:   strings.TrimSpace(legacy.Avatar),
		Bio:         strings.TrimSpace(legacy.Description),
		Userkey:     Userkey(legacy),
		ProfileID:   profileID(legacy.ProfileID),
		Score:       legacy.Score.Int(),
		Level:       ParseLevel(string(level)),
		Stats:       emptyStats(),
		ResolvedAt:  now,
	}

	if rich == nil {
		return profile
	}

	profile.DisplayName = preferString(rich.DisplayName, profile.DisplayName)
	profile.AvatarURL = preferString(rich.AvatarURL, profile.AvatarURL)
	profile.Bio = preferString(rich.Description, profile.Bio)
	profile.Score = preferInt(rich.Score.Int(), profile.Score)
	profile.TotalXP = rich.XPTotal.Int()
	profile.XPStreakDays = rich.XPStreakDays.Int()
	profile.TwitterFollowers = rich.TwitterFollowers.Int()
	if rich.TwitterVerified != nil {
		profile.TwitterVerified = *rich.TwitterVerified
	}
	if rich.Stats != nil {
		profile.Stats = stats(rich.Stats)
	}

	return profile
}

// Candidate maps a legacy search value onto a SearchCandidate.
func Candidate(u fetch.LegacyUser) types.SearchCandidate {
	candidate := types.SearchCandidate{
		ProfileID:      profileID(u.ProfileID),
		Handle:         u.Username,
		DisplayName:    strings.TrimSpace(u.Name),
		AvatarURL:      strings.TrimSpace(u.Avatar),
		Score:          u.Score.Int(),
		Userkeys:       []string{},
		Description:    strings.TrimSpace(u.Description),
		PrimaryAddress: strings.TrimSpace(u.PrimaryAddress),
	}
	if key := strings.TrimSpace(u.Userkey); key != "" {
		candidate.Userkeys = append(candidate.Userkeys, key)
	}
	return candidate
}

// Synthetic builds the placeholder profile returned while the upstream is
// unreachable. Every value is fixed so the result is reproducible.
func Synthetic(handle string, now time.Time) *types.UserProfile {
	handle = strings.TrimSpace(handle)
	return &types.UserProfile{
		Handle:      handle,
		DisplayName: handle,
		Userkey:     SyntheticUserkeyPrefix + types.NormalizeHandle(handle),
		Level:       types.LevelUnknown,
		Stats:       emptyStats(),
		Synthetic:   true,
		ResolvedAt:  now,
	}
}

func profileID(n fetch.Number) *int64 {
	if !n.Valid || n.Value <= 0 {
		return nil
	}
	id := n.Value
	return &id
}

func emptyStats() types.ProfileStats {
	return types.ProfileStats{
		Vouch: types.VouchStats{
			Given:    types.VouchTotals{AmountWeiTotal: "0"},
			Received: types.VouchTotals{AmountWeiTotal: "0"},
		},
	}
}

func stats(raw *fetch.Stats) types.ProfileStats {
	return types.ProfileStats{
		Review: types.ReviewStats{
			Received: reviewCounts(raw.Review.Received),
			Given:    reviewCounts(raw.Review.Given),
		},
		Vouch: types.VouchStats{
			Given:    vouchTotals(raw.Vouch.Given),
			Received: vouchTotals(raw.Vouch.Received),
		},
	}
}

func reviewCounts(raw *fetch.ReviewCounts) types.ReviewCounts {
	if raw == nil {
		return types.ReviewCounts{}
	}
	return types.ReviewCounts{
		Positive: raw.Positive.Int(),
		Neutral:  raw.Neutral.Int(),
		Negative: raw.Negative.Int(),
	}
}

func vouchTotals(raw *fetch.VouchTotals) types.VouchTotals {
	if raw == nil {
		return types.VouchTotals{AmountWeiTotal: "0"}
	}
	return types.VouchTotals{
		Count:          raw.Count.Int(),
		AmountWeiTotal: ParseWei(string(raw.AmountWeiTotal)),
	}
}

func preferString(rich, fallback string) string {
	if rich = strings.TrimSpace(rich); rich != "" {
		return rich
	}
	return fallback
}

func preferInt(rich, fallback int) int {
	if rich > 0 {
		return rich
	}
	return fallback
}
