package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/glm-statusline/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	a := setup()
	defer a.close()
	cfg := a.cfg

	path := config.ConfigPath()
	if flagConfigPath != "" {
		path = flagConfigPath
	}
	fmt.Printf("  Config file: %s\n", path)
	if config.Exists() || flagConfigPath != "" {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	if a.token != "" {
		fmt.Printf("    Auth token: %s\n", maskToken(a.token))
	} else {
		fmt.Println("    Auth token: not configured")
	}
	fmt.Printf("    Platform:   %s (%s)\n", a.platform.Name, a.platform.BaseURL)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Directory:   %s\n", cfg.CacheDir())
	fmt.Printf("    Monthly TTL: %ds\n", cfg.Cache.MonthlyTTLSec)
	fmt.Printf("    Daily TTL:   %ds\n", cfg.Cache.DailyTTLSec)
	fmt.Printf("    Quota TTL:   %ds\n", cfg.Cache.QuotaTTLSec)
	fmt.Println()

	d := cfg.Display
	fmt.Println("  [Display]")
	fmt.Printf("    Compact:   %v\n", d.Compact)
	fmt.Printf("    Bar width: %d\n", d.BarWidth)
	fmt.Printf("    Segments:  session=%v today=%v month=%v 5h=%v mcp=%v ctx=%v\n",
		d.ShowSession, d.ShowDaily, d.ShowMonthly, d.ShowFiveHour, d.ShowMCP, d.ShowContext)
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Debug: %v\n", flagDebug || config.DebugEnabled(cfg))
	fmt.Printf("    File:  %s\n", cfg.LogFile())
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `glm-statusline setup` to reconfigure.")
	return nil
}
