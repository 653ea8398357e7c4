package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/glm-statusline/internal/config"
	"github.com/theirongolddev/glm-statusline/internal/glm"
	"github.com/theirongolddev/glm-statusline/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// Segment keys offered by the setup form.
const (
	segSession  = "session"
	segDaily    = "daily"
	segMonthly  = "monthly"
	segFiveHour = "five_hour"
	segMCP      = "mcp"
	segContext  = "context"
)

// setupResult holds the form's bound values.
type setupResult struct {
	Token    string
	Platform string
	Compact  bool
	Segments []string
	Theme    string
}

func runSetup(_ *cobra.Command, _ []string) error {
	a := setup()
	defer a.close()
	cfg := a.cfg

	res := setupResult{
		Platform: a.platform.Name,
		Compact:  cfg.Display.Compact,
		Segments: segmentsOf(cfg.Display),
		Theme:    cfg.Appearance.Theme,
	}

	tokenDesc := "Sent as the Authorization header. Leave blank to keep the current value."
	if a.token != "" {
		tokenDesc = fmt.Sprintf("Current: %s. Leave blank to keep it.", maskToken(a.token))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GLM API token").
				Description(tokenDesc).
				EchoMode(huh.EchoModePassword).
				Value(&res.Token),
			huh.NewSelect[string]().
				Title("Platform").
				Options(
					huh.NewOption("ZHIPU (open.bigmodel.cn)", glm.Zhipu.Name),
					huh.NewOption("Z.AI (api.z.ai)", glm.ZAI.Name),
				).
				Value(&res.Platform),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Compact single-line status?").
				Affirmative("Yes").
				Negative("No").
				Value(&res.Compact),
			huh.NewMultiSelect[string]().
				Title("Segments").
				Options(
					huh.NewOption("Session tokens", segSession),
					huh.NewOption("Today", segDaily),
					huh.NewOption("This month", segMonthly),
					huh.NewOption("5-hour quota", segFiveHour),
					huh.NewOption("MCP quota", segMCP),
					huh.NewOption("Context window", segContext),
				).
				Value(&res.Segments),
			huh.NewSelect[string]().
				Title("Watch dashboard theme").
				Options(lo.Map(theme.All, func(t theme.Theme, _ int) huh.Option[string] {
					return huh.NewOption(t.Name, t.Name)
				})...).
				Value(&res.Theme),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	applySetup(&cfg, res)

	path := config.ConfigPath()
	if flagConfigPath != "" {
		path = flagConfigPath
	}
	if err := config.SaveTo(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `glm-statusline setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

// applySetup copies form answers into cfg.
func applySetup(cfg *config.Config, res setupResult) {
	if tok := strings.TrimSpace(res.Token); tok != "" {
		cfg.API.AuthToken = tok
	}
	switch res.Platform {
	case glm.ZAI.Name:
		cfg.API.BaseURL = glm.ZAI.BaseURL + "/api/anthropic"
	case glm.Zhipu.Name:
		cfg.API.BaseURL = glm.Zhipu.BaseURL + "/api/anthropic"
	}

	cfg.Display.Compact = res.Compact
	cfg.Display.ShowSession = lo.Contains(res.Segments, segSession)
	cfg.Display.ShowDaily = lo.Contains(res.Segments, segDaily)
	cfg.Display.ShowMonthly = lo.Contains(res.Segments, segMonthly)
	cfg.Display.ShowFiveHour = lo.Contains(res.Segments, segFiveHour)
	cfg.Display.ShowMCP = lo.Contains(res.Segments, segMCP)
	cfg.Display.ShowContext = lo.Contains(res.Segments, segContext)

	if res.Theme != "" {
		cfg.Appearance.Theme = res.Theme
	}
}

func segmentsOf(d config.DisplayConfig) []string {
	flags := map[string]bool{
		segSession:  d.ShowSession,
		segDaily:    d.ShowDaily,
		segMonthly:  d.ShowMonthly,
		segFiveHour: d.ShowFiveHour,
		segMCP:      d.ShowMCP,
		segContext:  d.ShowContext,
	}
	return lo.Filter([]string{segSession, segDaily, segMonthly, segFiveHour, segMCP, segContext},
		func(s string, _ int) bool { return flags[s] })
}

func maskToken(tok string) string {
	if len(tok) > 16 {
		return tok[:8] + "..." + tok[len(tok)-4:]
	}
	if len(tok) > 4 {
		return tok[:4] + "..."
	}
	return "****"
}
