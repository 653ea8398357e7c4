package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/glm-statusline/internal/model"
	"github.com/theirongolddev/glm-statusline/internal/source"
)

const (
	segmentSep     = " │ "
	defaultBarSize = 8
)

// ErrorLine is printed when the status line cannot be produced at all.
const ErrorLine = "GLM │ Statusline Error"

// StatusOptions selects which status-line segments are shown.
type StatusOptions struct {
	Compact      bool
	BarWidth     int
	ShowSession  bool
	ShowDaily    bool
	ShowMonthly  bool
	ShowMCP      bool
	ShowFiveHour bool
	ShowContext  bool
}

// DefaultStatusOptions shows every segment on two lines.
func DefaultStatusOptions() StatusOptions {
	return StatusOptions{
		BarWidth:     defaultBarSize,
		ShowSession:  true,
		ShowDaily:    true,
		ShowMonthly:  true,
		ShowMCP:      true,
		ShowFiveHour: true,
		ShowContext:  true,
	}
}

// Local hides the segments that need remote usage data.
func (o StatusOptions) Local() StatusOptions {
	o.ShowDaily = false
	o.ShowMonthly = false
	o.ShowMCP = false
	return o
}

// StatusLine renders the Claude Code status line. Claude Code reads our
// stdout through a pipe, so the color profile is fixed rather than detected.
type StatusLine struct {
	model   lipgloss.Style
	session lipgloss.Style
	monthly lipgloss.Style
	green   lipgloss.Style
	yellow  lipgloss.Style
	red     lipgloss.Style
}

// NewStatusLine creates a renderer using the given color profile.
// termenv.ANSI matches what Claude Code displays; termenv.Ascii disables color.
func NewStatusLine(profile termenv.Profile) *StatusLine {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)

	return &StatusLine{
		model:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		session: r.NewStyle().Faint(true),
		monthly: r.NewStyle().Foreground(lipgloss.Color("4")),
		green:   r.NewStyle().Foreground(lipgloss.Color("2")),
		yellow:  r.NewStyle().Foreground(lipgloss.Color("3")),
		red:     r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Render builds the status line. A nil or errored snapshot renders zeros.
func (s *StatusLine) Render(ctx source.Context, snap *model.UsageSnapshot, opts StatusOptions) string {
	var (
		monthlyTokens, dailyTokens int64
		mcpPct, fiveHourPct        float64
	)
	if snap != nil && snap.Error == "" {
		if snap.Monthly != nil {
			monthlyTokens = snap.Monthly.TotalTokens
		}
		if snap.Daily != nil {
			dailyTokens = snap.Daily.DailyTokens
		}
		if snap.Quota != nil {
			mcpPct = snap.Quota.MCPUsage.Percentage
			fiveHourPct = snap.Quota.TokenUsage.Percentage
		}
	}

	width := opts.BarWidth
	if width <= 0 {
		width = defaultBarSize
	}

	line1 := []string{s.model.Render(ctx.Model)}
	if opts.ShowSession {
		line1 = append(line1, s.session.Render("Session:"+FormatTokens(ctx.SessionTokens())))
	}
	if opts.ShowDaily {
		line1 = append(line1, "Today:"+FormatTokens(dailyTokens))
	}
	if opts.ShowMonthly {
		line1 = append(line1, s.monthly.Render("Month:"+FormatTokens(monthlyTokens)))
	}

	var line2 []string
	if opts.ShowFiveHour {
		line2 = append(line2, "5h "+s.bar(fiveHourPct, width)+s.percentStyle(fiveHourPct).Render(FormatPercent(fiveHourPct)))
	}
	if opts.ShowMCP {
		line2 = append(line2, "MCP "+s.bar(mcpPct, width)+s.percentStyle(mcpPct).Render(FormatPercent(mcpPct)))
	}
	if opts.ShowContext {
		line2 = append(line2, "Ctx "+s.bar(ctx.ContextUsed, width)+FormatPercent(ctx.ContextUsed)+
			" ("+FormatContextSize(ctx.ContextSize)+")")
	}

	first := strings.Join(line1, segmentSep)
	if len(line2) == 0 {
		return first
	}
	second := strings.Join(line2, segmentSep)
	if opts.Compact {
		return first + segmentSep + second
	}
	return first + "\n" + second
}

// bar draws a block progress bar colored by how full it is.
func (s *StatusLine) bar(pct float64, width int) string {
	return s.percentStyle(pct).Render(Bar(pct, width))
}

func (s *StatusLine) percentStyle(pct float64) lipgloss.Style {
	switch {
	case pct < 50:
		return s.green
	case pct < 80:
		return s.yellow
	default:
		return s.red
	}
}

// Bar returns an uncolored block bar of width cells for a 0-100 value.
func Bar(pct float64, width int) string {
	filled := int(pct*float64(width)/100 + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
