// Package observability provides logging, Prometheus metrics and formatted
// output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		runes := []rune(line)
		if len(runes) > boxWidth-4 {
			line = string(runes[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfile outputs a summary of a resolved profile and its metrics.
func (p *Printer) PrintProfile(profile *types.UserProfile, m *types.DisplayMetrics) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Handle:   @%s\n", profile.Handle))
	if profile.DisplayName != "" {
		sb.WriteString(fmt.Sprintf("Name:     %s\n", profile.DisplayName))
	}
	sb.WriteString(fmt.Sprintf("Score:    %d (%s)\n", profile.Score, profile.Level))
	if profile.Synthetic {
		sb.WriteString("Source:   offline placeholder\n")
	}

	if m != nil {
		sb.WriteString("\n")
		for _, def := range metrics.Table {
			sb.WriteString(fmt.Sprintf("%-30s %s\n", def.Label, def.Display(m)))
		}
	}

	p.printBox("PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidates outputs typeahead candidates.
func (p *Printer) PrintCandidates(query string, candidates []types.SearchCandidate) {
	var sb strings.Builder
	if len(candidates) == 0 {
		sb.WriteString("No matches")
	}

	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := candidates[i]
		sb.WriteString(fmt.Sprintf("#%-2d @%-20s %5d", i+1, c.Handle, c.Score))
		if c.HasProfileID() {
			sb.WriteString("  ✓")
		}
		if c.DisplayName != "" {
			sb.WriteString(fmt.Sprintf("  %s", c.DisplayName))
		}
		sb.WriteString("\n")
	}
	if len(candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(candidates)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("SEARCH %q", query), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintComparison outputs both sides and every metric row.
func (p *Printer) PrintComparison(c *types.Comparison) {
	if c == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %-16s %-16s\n", "", sideTitle(c.Left), sideTitle(c.Right)))
	for _, side := range []types.ComparisonSide{c.Left, c.Right} {
		if side.Error != "" {
			sb.WriteString(fmt.Sprintf("@%s: %s\n", side.Handle, side.Error))
		}
	}

	for _, row := range c.Rows {
		def, ok := metrics.Lookup(metrics.Key(row.Key))
		left, right := "-", "-"
		if ok {
			if c.Left.Metrics != nil {
				left = def.Display(c.Left.Metrics)
			}
			if c.Right.Metrics != nil {
				right = def.Display(c.Right.Metrics)
			}
		}
		marker := ""
		switch row.Winner {
		case types.WinnerLeft:
			marker = "◀"
		case types.WinnerRight:
			marker = "▶"
		case types.WinnerDraw:
			marker = "="
		}
		sb.WriteString(fmt.Sprintf("%-24s %-16s %-16s %s\n", truncate(row.Label, 24), left, right, marker))
	}

	p.printBox("COMPARISON "+c.ID.String()[:8], strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMetricTable outputs the metric definitions.
func (p *Printer) PrintMetricTable() {
	var sb strings.Builder
	for _, def := range metrics.Table {
		sb.WriteString(fmt.Sprintf("%-28s %-30s %8s\n", def.Key, def.Label, metrics.FormatValue(def.Format, def.Max)))
	}
	p.printBox("METRICS", strings.TrimSuffix(sb.String(), "\n"))
}

func sideTitle(side types.ComparisonSide) string {
	title := "@" + side.Handle
	if side.Profile != nil && side.Profile.Synthetic {
		title += "*"
	}
	return truncate(title, 16)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
