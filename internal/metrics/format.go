package metrics

import (
	"math"
	"strconv"

	"github.com/jonathan/profile-compare/internal/normalize"
)

// Format selects how a metric value is rendered.
type Format int

const (
	// FormatInteger renders the value as a whole number.
	FormatInteger Format = iota
	// FormatCompact abbreviates thousands and millions ("1.25k", "3.10m").
	FormatCompact
	// FormatEther renders two decimals.
	FormatEther
)

// FormatValue renders v according to f.
func FormatValue(f Format, v float64) string {
	switch f {
	case FormatCompact:
		return compact(v)
	case FormatEther:
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
}

// FormatExact renders an exact decimal string according to f.
func FormatExact(f Format, exact string) string {
	if f == FormatEther {
		return normalize.RoundDecimal(exact, 2)
	}
	v, err := strconv.ParseFloat(exact, 64)
	if err != nil {
		v = 0
	}
	return FormatValue(f, v)
}

func compact(v float64) string {
	switch {
	case v >= 1_000_000:
		return strconv.FormatFloat(v/1_000_000, 'f', 2, 64) + "m"
	case v >= 1_000:
		return strconv.FormatFloat(v/1_000, 'f', 2, 64) + "k"
	default:
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
}

// ScoreBand is the color bracket of a score.
type ScoreBand struct {
	Name  string
	Min   int
	Color string
}

// ScoreBands lists score brackets from highest to lowest.
var ScoreBands = []ScoreBand{
	{Name: "exemplary", Min: 2000, Color: "#7a5eaf"},
	{Name: "reputable", Min: 1600, Color: "#117f31"},
	{Name: "neutral", Min: 1200, Color: "#c1c0b6"},
	{Name: "questionable", Min: 800, Color: "#c29011"},
	{Name: "untrusted", Min: 0, Color: "#b72c37"},
}

// BandFor returns the bracket a score falls into.
func BandFor(score int) ScoreBand {
	for _, band := range ScoreBands {
		if score >= band.Min {
			return band
		}
	}
	return ScoreBands[len(ScoreBands)-1]
}
