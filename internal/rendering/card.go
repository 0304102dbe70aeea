package rendering

import (
	"bytes"
	_ "embed"
	"html/template"
	"strconv"
	"strings"
	"sync"

	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/types"
)

// DefaultAvatarURL replaces a missing avatar.
const DefaultAvatarURL = "https://abs.twimg.com/sticky/default_profile_images/default_profile_normal.png"

// DefaultCardWidth is the card width in CSS pixels.
const DefaultCardWidth = 1200

//go:embed templates/card.html.tmpl
var cardTemplateSource string

var (
	cardTemplateOnce sync.Once
	cardTemplate     *template.Template
	cardTemplateErr  error
)

// CardData is the view model passed to the share card template.
type CardData struct {
	ID    string
	Title string
	Width int
	Sides []CardSide
	Rows  []CardRow
}

// CardSide is one profile column on the card.
type CardSide struct {
	Position    string
	Handle      string
	DisplayName string
	AvatarURL   string
	ProfileURL  string
	Level       string
	Score       string
	BandName    string
	BandColor   template.CSS
	Synthetic   bool
	Error       string
	Stats       []CardStat
}

// CardStat is a labeled headline value.
type CardStat struct {
	Label string
	Value string
}

// CardRow is one compared metric with its bar widths.
type CardRow struct {
	Key          string
	Label        string
	Left         string
	Right        string
	LeftPercent  string
	RightPercent string
	Winner       string
}

// headline metrics shown under each profile
var cardStats = []metrics.Key{
	metrics.KeyTotalXP,
	metrics.KeyReviewsReceivedTotal,
	metrics.KeyEthVouchedReceived,
}

// RenderCard renders the share card HTML for c.
func RenderCard(c *types.Comparison) (string, error) {
	if c == nil {
		return "", &RenderError{Message: "comparison is nil"}
	}

	tmpl, err := loadCardTemplate()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, BuildCardData(c)); err != nil {
		return "", &TemplateError{Message: "failed to execute card template", Cause: err}
	}
	return buf.String(), nil
}

// BuildCardData converts a comparison into the card view model.
func BuildCardData(c *types.Comparison) CardData {
	data := CardData{
		ID:    c.ID.String(),
		Title: "@" + c.Left.Handle + " vs @" + c.Right.Handle,
		Width: DefaultCardWidth,
		Sides: []CardSide{buildSide("left", c.Left), buildSide("right", c.Right)},
		Rows:  make([]CardRow, 0, len(c.Rows)),
	}

	for _, row := range c.Rows {
		cr := CardRow{
			Key:          row.Key,
			Label:        row.Label,
			Left:         "-",
			Right:        "-",
			LeftPercent:  percent(row.LeftPercent),
			RightPercent: percent(row.RightPercent),
			Winner:       string(row.Winner),
		}
		if def, ok := metrics.Lookup(metrics.Key(row.Key)); ok {
			if c.Left.Metrics != nil {
				cr.Left = def.Display(c.Left.Metrics)
			}
			if c.Right.Metrics != nil {
				cr.Right = def.Display(c.Right.Metrics)
			}
		}
		data.Rows = append(data.Rows, cr)
	}
	return data
}

func buildSide(position string, side types.ComparisonSide) CardSide {
	out := CardSide{Position: position, Handle: side.Handle, Error: side.Error}
	if !side.Ready() {
		if out.Error == "" {
			out.Error = "Profile unavailable"
		}
		return out
	}

	p := side.Profile
	band := metrics.BandFor(p.Score)
	out.Handle = p.Handle
	out.DisplayName = displayName(p)
	out.AvatarURL = p.AvatarURL
	if out.AvatarURL == "" {
		out.AvatarURL = DefaultAvatarURL
	}
	out.ProfileURL = ProfileURLPrefix + p.Handle
	out.Level = levelTitle(side.Metrics.Level)
	out.Score = strconv.Itoa(side.Metrics.Score)
	out.BandName = band.Name
	out.BandColor = template.CSS(band.Color)
	out.Synthetic = p.Synthetic

	for _, key := range cardStats {
		def, ok := metrics.Lookup(key)
		if !ok {
			continue
		}
		out.Stats = append(out.Stats, CardStat{Label: def.Label, Value: def.Display(side.Metrics)})
	}
	return out
}

func loadCardTemplate() (*template.Template, error) {
	cardTemplateOnce.Do(func() {
		cardTemplate, cardTemplateErr = template.New("card").Parse(cardTemplateSource)
	})
	if cardTemplateErr != nil {
		return nil, &TemplateError{Message: "failed to parse card template", Cause: cardTemplateErr}
	}
	return cardTemplate, nil
}

func levelTitle(level types.Level) string {
	if level == "" || level == types.LevelUnknown {
		return "User"
	}
	s := string(level)
	return strings.ToUpper(s[:1]) + s[1:]
}

func percent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}
