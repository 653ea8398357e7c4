// Package tui provides the interactive Bubble Tea dashboard behind `glm-statusline watch`.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/glm-statusline/internal/cli"
	"github.com/theirongolddev/glm-statusline/internal/model"
	"github.com/theirongolddev/glm-statusline/internal/tui/components"
	"github.com/theirongolddev/glm-statusline/internal/tui/theme"
)

// Snapshotter produces merged usage snapshots. *usage.Service satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context) model.UsageSnapshot
	Platform() string
}

// SnapshotMsg is sent when a background snapshot completes.
type SnapshotMsg struct {
	Snap model.UsageSnapshot
	Took time.Duration
}

type tickMsg struct{}

const (
	minTerminalWidth = 60
	maxContentWidth  = 140
	minContentHeight = 5

	snapshotTimeout = 30 * time.Second
	clockInterval   = time.Second
)

// Options configures the dashboard.
type Options struct {
	// RefreshInterval is how often a snapshot is taken. Fresh cache entries
	// make most refreshes local.
	RefreshInterval time.Duration
	// Watcher, when set, triggers a refresh as soon as the cache changes.
	Watcher *Watcher
}

// App is the root Bubble Tea model.
type App struct {
	svc     Snapshotter
	watcher *Watcher

	snap     *model.UsageSnapshot
	loaded   bool
	loadTime time.Duration

	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	width  int
	height int

	spinner spinner.Model
	now     func() time.Time
}

// NewApp creates the dashboard model.
func NewApp(svc Snapshotter, opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	interval := opts.RefreshInterval
	if interval < 10*time.Second {
		interval = 30 * time.Second
	}

	return App{
		svc:             svc,
		watcher:         opts.Watcher,
		refreshInterval: interval,
		refreshing:      true,
		spinner:         sp,
		now:             time.Now,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		snapshotCmd(a.svc),
		a.spinner.Tick,
		tickCmd(),
	}
	if a.watcher != nil {
		cmds = append(cmds, a.watcher.Wait())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return a, tea.Quit
		case "r":
			return a.refresh()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		if a.loaded && a.now().Sub(a.lastRefresh) >= a.refreshInterval {
			next, cmd := a.refresh()
			return next, tea.Batch(cmd, tickCmd())
		}
		return a, tickCmd()

	case CacheChangedMsg:
		next, cmd := a.refresh()
		if a.watcher != nil {
			cmd = tea.Batch(cmd, a.watcher.Wait())
		}
		return next, cmd

	case SnapshotMsg:
		snap := msg.Snap
		a.snap = &snap
		a.loaded = true
		a.refreshing = false
		a.loadTime = msg.Took
		a.lastRefresh = a.now()
		return a, nil
	}

	return a, nil
}

// refresh starts a snapshot unless one is already in flight.
func (a App) refresh() (App, tea.Cmd) {
	if a.refreshing {
		return a, nil
	}
	a.refreshing = true
	return a, snapshotCmd(a.svc)
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  glm-statusline watch needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ glm-statusline"))
	b.WriteString(subtitleStyle.Render(" · " + a.svc.Platform() + " Coding Plan"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Fetching usage..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	snap := a.snap

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	level := model.DefaultLevel
	if snap.Quota != nil && snap.Quota.Level != "" {
		level = snap.Quota.Level
	}
	header := " " + titleStyle.Render("◈ glm-statusline") +
		dimStyle.Render(fmt.Sprintf(" · %s · plan %s", snap.Platform, level))

	statusBar := components.RenderStatusBar(w, a.statusInfo())

	contentH := a.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	if snap.Error != "" {
		content = components.ContentCard("Error",
			lipgloss.NewStyle().Foreground(t.Red).Render(snap.Error), cw)
	} else {
		content = a.renderUsage(cw, contentH)
	}
	content = padHeight(truncateHeight(content, contentH), contentH)

	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (a App) renderUsage(cw, h int) string {
	snap := a.snap

	var today, monthTokens, monthCalls int64
	if snap.Daily != nil {
		today = snap.Daily.DailyTokens
	}
	if snap.Monthly != nil {
		monthTokens = snap.Monthly.TotalTokens
		monthCalls = snap.Monthly.TotalCalls
	}
	quota := model.DefaultQuota()
	if snap.Quota != nil {
		quota = *snap.Quota
	}

	cards := components.MetricCardRow([]components.Metric{
		{Label: "Today", Value: cli.FormatTokens(today), Detail: "tokens"},
		{Label: "This Month", Value: cli.FormatTokens(monthTokens), Detail: "tokens"},
		{Label: "Calls", Value: cli.FormatNumber(monthCalls), Detail: "this month"},
	}, cw)

	inner := components.CardInnerWidth(cw)
	barW := inner - 30
	if barW > 50 {
		barW = 50
	}
	if barW < 10 {
		barW = 10
	}
	mcpDetail := ""
	if quota.MCPUsage.Total > 0 {
		mcpDetail = fmt.Sprintf("%s/%s calls",
			cli.FormatNumber(quota.MCPUsage.Current), cli.FormatNumber(quota.MCPUsage.Total))
	}
	quotas := components.ContentCard("Quota",
		components.QuotaBar("5h tokens", quota.TokenUsage.Percentage, "", 10, barW)+"\n"+
			components.QuotaBar("MCP", quota.MCPUsage.Percentage, mcpDetail, 10, barW),
		cw)

	chartH := h - lipgloss.Height(cards) - lipgloss.Height(quotas) - 5
	if chartH > 12 {
		chartH = 12
	}
	var points []model.HourlyPoint
	if snap.Daily != nil {
		points = snap.Daily.Hourly()
	}
	chart := components.ContentCard("Last 24 Hours",
		components.HourlyChart(points, inner-10, chartH), cw)

	return lipgloss.JoinVertical(lipgloss.Left, cards, quotas, chart)
}

// statusInfo summarizes refresh state and where each metric came from.
func (a App) statusInfo() string {
	if a.refreshing {
		return "refreshing..."
	}
	parts := []string{fmt.Sprintf("updated %s ago in %.1fs",
		cli.FormatAge(a.now().Sub(a.lastRefresh)), a.loadTime.Seconds())}
	if a.snap != nil && len(a.snap.Origins) > 0 {
		for _, m := range model.Metrics {
			if o, ok := a.snap.Origins[m]; ok {
				parts = append(parts, fmt.Sprintf("%s:%s", m, o))
			}
		}
	}
	return strings.Join(parts, " · ")
}

// ─── Commands ───────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// snapshotCmd takes a snapshot in a background goroutine.
func snapshotCmd(svc Snapshotter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		start := time.Now()
		snap := svc.Snapshot(ctx)
		return SnapshotMsg{Snap: snap, Took: time.Since(start)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
