package fetch

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number decodes a JSON number, a numeric string or null without ever failing.
// Values that cannot be read as a number leave Valid false.
type Number struct {
	Value int64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}

	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}

	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		*n = Number{Value: v, Valid: true}
		return nil
	}

	// Counters sometimes arrive as 12.0; truncate toward zero.
	if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) &&
		f <= math.MaxInt64 && f >= math.MinInt64 {
		*n = Number{Value: int64(f), Valid: true}
	}
	return nil
}

// Int returns the value as a non-negative int; invalid or negative values become 0.
func (n Number) Int() int {
	if !n.Valid || n.Value < 0 {
		return 0
	}
	if n.Value > math.MaxInt {
		return math.MaxInt
	}
	return int(n.Value)
}

// Amount holds a smallest-unit amount exactly as the upstream sent it.
// Both JSON strings and bare JSON numbers are accepted; the raw text is kept
// so large integers never pass through float64.
type Amount string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		*a = ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			*a = ""
			return nil
		}
		*a = Amount(strings.TrimSpace(s))
	default:
		*a = Amount(raw)
	}
	return nil
}

// text decodes a JSON string. Numbers keep their literal text; any other
// JSON value decodes to the empty string.
type text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *text) UnmarshalJSON(data []byte) error {
	*t = ""
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 {
		return nil
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			*t = text(s)
		}
	case c == '-' || (c >= '0' && c <= '9'):
		*t = text(raw)
	}
	return nil
}

// flag decodes a JSON boolean or a boolean-like string. Anything else is unset.
type flag struct {
	Value bool
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *flag) UnmarshalJSON(data []byte) error {
	*f = flag{}
	var s text
	raw := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(raw, []byte("true")):
		*f = flag{Value: true, Valid: true}
	case bytes.Equal(raw, []byte("false")):
		*f = flag{Valid: true}
	default:
		_ = s.UnmarshalJSON(raw)
		if b, err := strconv.ParseBool(strings.TrimSpace(string(s))); err == nil {
			*f = flag{Value: b, Valid: true}
		}
	}
	return nil
}

// list decodes a JSON array value by value. Values that fail to decode are
// dropped; a non-array decodes to an empty list.
type list[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (l *list[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// decodeBlock decodes an optional nested object. It reports false for a
// missing, null or mistyped block.
func decodeBlock(raw json.RawMessage, v any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// LegacyUser is one value of the legacy search response.
type LegacyUser struct {
	Username       string `json:"username"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar"`
	Score          Number `json:"score"`
	Userkey        string `json:"userkey"`
	Description    string `json:"description"`
	ProfileID      Number `json:"profileId"`
	PrimaryAddress string `json:"primaryAddress"`
}

// UnmarshalJSON decodes each field on its own so one mistyped field only
// loses that field. A value that is not an object decodes to the zero user.
func (u *LegacyUser) UnmarshalJSON(data []byte) error {
	*u = LegacyUser{}
	var wire struct {
		Username       text   `json:"username"`
		Name           text   `json:"name"`
		Avatar         text   `json:"avatar"`
		Score          Number `json:"score"`
		Userkey        text   `json:"userkey"`
		Description    text   `json:"description"`
		ProfileID      Number `json:"profileId"`
		PrimaryAddress text   `json:"primaryAddress"`
	}
	if !decodeBlock(data, &wire) {
		return nil
	}
	*u = LegacyUser{
		Username:       string(wire.Username),
		Name:           string(wire.Name),
		Avatar:         string(wire.Avatar),
		Score:          wire.Score,
		Userkey:        string(wire.Userkey),
		Description:    string(wire.Description),
		ProfileID:      wire.ProfileID,
		PrimaryAddress: string(wire.PrimaryAddress),
	}
	return nil
}

// LegacySearchResponse is the envelope of GET /search on the legacy API.
type LegacySearchResponse struct {
	OK   bool `json:"ok"`
	Data struct {
		Values list[LegacyUser] `json:"values"`
	} `json:"data"`
}

// ScoreResponse is the body of GET /score/userkey.
type ScoreResponse struct {
	Score Number `json:"score"`
	Level text   `json:"level"`
}

// ReviewCounts is the review polarity block inside V2 stats.
type ReviewCounts struct {
	Positive Number `json:"positive"`
	Neutral  Number `json:"neutral"`
	Negative Number `json:"negative"`
}

// VouchTotals is the vouch block inside V2 stats.
type VouchTotals struct {
	Count          Number `json:"count"`
	AmountWeiTotal Amount `json:"amountWeiTotal"`
}

// Stats holds the nested counters of a V2 user. Every block is optional.
type Stats struct {
	Review struct {
		Received *ReviewCounts `json:"received"`
		Given    *ReviewCounts `json:"given"`
	} `json:"review"`
	Vouch struct {
		Given    *VouchTotals `json:"given"`
		Received *VouchTotals `json:"received"`
	} `json:"vouch"`
}

// UnmarshalJSON decodes every block independently; a mistyped block is left nil.
func (s *Stats) UnmarshalJSON(data []byte) error {
	*s = Stats{}
	var wire struct {
		Review json.RawMessage `json:"review"`
		Vouch  json.RawMessage `json:"vouch"`
	}
	if !decodeBlock(data, &wire) {
		return nil
	}

	var pair struct {
		Received json.RawMessage `json:"received"`
		Given    json.RawMessage `json:"given"`
	}
	if decodeBlock(wire.Review, &pair) {
		s.Review.Received = reviewBlock(pair.Received)
		s.Review.Given = reviewBlock(pair.Given)
	}
	pair.Received, pair.Given = nil, nil
	if decodeBlock(wire.Vouch, &pair) {
		s.Vouch.Received = vouchBlock(pair.Received)
		s.Vouch.Given = vouchBlock(pair.Given)
	}
	return nil
}

func reviewBlock(raw json.RawMessage) *ReviewCounts {
	var c ReviewCounts
	if !decodeBlock(raw, &c) {
		return nil
	}
	return &c
}

func vouchBlock(raw json.RawMessage) *VouchTotals {
	var v VouchTotals
	if !decodeBlock(raw, &v) {
		return nil
	}
	return &v
}

// V2User is one value of the v2 user search response.
type V2User struct {
	ID               Number   `json:"id"`
	Username         string   `json:"username"`
	DisplayName      string   `json:"displayName"`
	AvatarURL        string   `json:"avatarUrl"`
	Description      string   `json:"description"`
	Score            Number   `json:"score"`
	Status           string   `json:"status"`
	Userkeys         []string `json:"userkeys"`
	XPTotal          Number   `json:"xpTotal"`
	XPStreakDays     Number   `json:"xpStreakDays"`
	TwitterFollowers Number   `json:"twitterFollowers"`
	TwitterVerified  *bool    `json:"twitterVerified"`
	Stats            *Stats   `json:"stats"`
}

// UnmarshalJSON decodes each field on its own so one mistyped field only
// loses that field. A value that is not an object decodes to the zero user.
func (u *V2User) UnmarshalJSON(data []byte) error {
	*u = V2User{}
	var wire struct {
		ID               Number          `json:"id"`
		Username         text            `json:"username"`
		DisplayName      text            `json:"displayName"`
		AvatarURL        text            `json:"avatarUrl"`
		Description      text            `json:"description"`
		Score            Number          `json:"score"`
		Status           text            `json:"status"`
		Userkeys         list[text]      `json:"userkeys"`
		XPTotal          Number          `json:"xpTotal"`
		XPStreakDays     Number          `json:"xpStreakDays"`
		TwitterFollowers Number          `json:"twitterFollowers"`
		TwitterVerified  flag            `json:"twitterVerified"`
		Stats            json.RawMessage `json:"stats"`
	}
	if !decodeBlock(data, &wire) {
		return nil
	}

	*u = V2User{
		ID:               wire.ID,
		Username:         string(wire.Username),
		DisplayName:      string(wire.DisplayName),
		AvatarURL:        string(wire.AvatarURL),
		Description:      string(wire.Description),
		Score:            wire.Score,
		Status:           string(wire.Status),
		XPTotal:          wire.XPTotal,
		XPStreakDays:     wire.XPStreakDays,
		TwitterFollowers: wire.TwitterFollowers,
	}
	for _, key := range wire.Userkeys {
		if key != "" {
			u.Userkeys = append(u.Userkeys, string(key))
		}
	}
	if wire.TwitterVerified.Valid {
		verified := wire.TwitterVerified.Value
		u.TwitterVerified = &verified
	}
	var stats Stats
	if decodeBlock(wire.Stats, &stats) {
		u.Stats = &stats
	}
	return nil
}

// UserSearchResponse is the envelope of GET /users/search on the v2 API.
type UserSearchResponse struct {
	Values list[V2User] `json:"values"`
}
