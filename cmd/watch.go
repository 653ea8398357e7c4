package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/glm-statusline/internal/tui"
	"github.com/theirongolddev/glm-statusline/internal/tui/theme"
)

var flagInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live usage dashboard",
	Long: `Opens a full-screen dashboard with today's and this month's tokens, the 5h and
MCP quotas and an hourly chart. It refreshes on an interval and whenever the
status line rewrites the cache.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagInterval, "interval", 0, "Refresh interval (default: shortest cache TTL)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	a := setup()
	defer a.close()

	theme.SetActive(a.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	interval := flagInterval
	if interval <= 0 {
		interval = lo.Min(lo.Values(a.cfg.TTL()))
	}

	opts := tui.Options{RefreshInterval: interval}
	if w, err := tui.NewWatcher(a.cache.Dir()); err != nil {
		a.log.Warn("cache watcher disabled", zap.Error(err))
	} else {
		defer func() { _ = w.Close() }()
		opts.Watcher = w
	}

	p := tea.NewProgram(tui.NewApp(a.service(), opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
