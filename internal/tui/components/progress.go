package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/glm-statusline/internal/tui/theme"
)

// QuotaBar renders a labeled quota gauge: label, bar, percentage and an
// optional detail such as "300/1,000 calls". pct is on a 0-100 scale.
func QuotaBar(label string, pct float64, detail string, labelW, barWidth int) string {
	t := theme.Active

	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	color := t.Gauge(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	detailStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	out := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		" " + bar.ViewAs(pct/100) +
		" " + pctStyle.Render(fmt.Sprintf("%3.0f%%", pct))
	if detail != "" {
		out += "  " + detailStyle.Render(detail)
	}
	return out
}
