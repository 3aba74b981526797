package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(14)

	bullishStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	bearishStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	neutralStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// sentimentStyle colors a label the way the summary shows it.
func sentimentStyle(label string) lipgloss.Style {
	switch label {
	case consts.LabelBullish:
		return bullishStyle
	case consts.LabelBearish:
		return bearishStyle
	case consts.LabelNeutral:
		return neutralStyle
	default:
		return mutedStyle
	}
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

// renderSummary is the console view of a finished run.
func renderSummary(stockName string, result *models.UnifiedCollectionResult) string {
	var lines []string
	s := result.Combined.Sentiment

	lines = append(lines, titleStyle.Render(fmt.Sprintf("SI+ %s (%s)", stockName, result.Ticker)))
	lines = append(lines, row("Sentiment", sentimentStyle(result.Combined.SentimentLabel).Render(
		fmt.Sprintf("%s %+.2f", result.Combined.SentimentLabel, s.Score))))
	lines = append(lines, row("Messages", fmt.Sprintf("%s (spam removed %s)",
		humanize.Comma(int64(result.Stats.TotalMessages)), humanize.Comma(int64(result.Stats.SpamRemoved)))))
	lines = append(lines, row("Bull/Bear/Neu", fmt.Sprintf("%d / %d / %d", s.BullishCount, s.BearishCount, s.NeutralCount)))
	lines = append(lines, row("Rumor ratio", fmt.Sprintf("%.1f%%", result.Stats.RumorRatio*100)))

	if len(result.Sources) == 0 {
		lines = append(lines, row("Sources", mutedStyle.Render("none succeeded")))
	}
	for _, src := range result.Sources {
		lines = append(lines, row("  "+src.Source, fmt.Sprintf("%s msgs (direct %d, theme %d)",
			humanize.Comma(int64(src.Stats.TotalMessages)), src.Stats.DirectCount, src.Stats.ThemeCount)))
	}

	return panelStyle.Render(strings.Join(lines, "\n"))
}

// renderHistory lists saved runs, newest first.
func renderHistory(results []ResultSummary) string {
	if len(results) == 0 {
		return mutedStyle.Render("No saved results.")
	}
	var lines []string
	lines = append(lines, titleStyle.Render("Saved SI+ runs"))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s  %s  %s  %s msgs  %s",
			r.Ticker,
			sentimentStyle(r.Label).Render(fmt.Sprintf("%-8s %+.2f", r.Label, r.Score)),
			mutedStyle.Render(humanize.Time(r.CollectedAt)),
			humanize.Comma(int64(r.Messages)),
			r.Dir,
		))
	}
	return strings.Join(lines, "\n")
}
