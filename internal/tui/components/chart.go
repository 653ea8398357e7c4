package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/theirongolddev/glm-statusline/internal/model"
	"github.com/theirongolddev/glm-statusline/internal/tui/theme"
)

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 4) // UTF-8 block chars are up to 3 bytes
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		buf.WriteRune(blocks[idx]) //nolint:gosec // bounds checked above
	}

	return style.Render(buf.String())
}

// HourlyChart plots the hourly token series as a line graph. Narrow or
// short areas fall back to a sparkline.
func HourlyChart(points []model.HourlyPoint, width, height int) string {
	t := theme.Active
	if len(points) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("no hourly data")
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = float64(p.Tokens)
	}

	if width < 20 || height < 3 || len(values) < 2 {
		return Sparkline(values, t.Accent)
	}

	caption := "tokens/hour, " + hourOf(points[0].Time) + " to " + hourOf(points[len(points)-1].Time)
	graph := asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)

	return lipgloss.NewStyle().Foreground(t.Accent).Render(graph)
}

// hourOf extracts "HH:MM" from "YYYY-MM-DD HH:MM[:SS]".
func hourOf(ts string) string {
	if i := strings.IndexByte(ts, ' '); i >= 0 && len(ts) >= i+6 {
		return ts[i+1 : i+6]
	}
	return ts
}
