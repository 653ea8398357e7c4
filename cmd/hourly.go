package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/glm-statusline/internal/cli"
	"github.com/theirongolddev/glm-statusline/internal/model"
)

var hourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Tokens by hour over the last 24 hours",
	RunE:  runHourly,
}

func init() {
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(cmd *cobra.Command, _ []string) error {
	a := setup()
	defer a.close()

	snap := a.service().Snapshot(commandContext(cmd))
	if snap.Error != "" {
		return fmt.Errorf("fetch failed: %s", snap.Error)
	}

	var points []model.HourlyPoint
	if snap.Daily != nil {
		points = snap.Daily.Hourly()
	}
	if len(points) == 0 {
		fmt.Println("\n  No hourly data.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TOKENS BY HOUR  Last 24h · %s", snap.Platform)))
	fmt.Println()
	fmt.Print(renderHourly(points, 40))
	return nil
}

// renderHourly draws one bar per sample, scaled to the busiest hour.
func renderHourly(points []model.HourlyPoint, maxBarWidth int) string {
	var b strings.Builder

	var peak model.HourlyPoint
	for _, p := range points {
		if p.Tokens > peak.Tokens {
			peak = p
		}
	}

	for _, p := range points {
		barLen := 0
		if peak.Tokens > 0 {
			barLen = int(p.Tokens * int64(maxBarWidth) / peak.Tokens)
		}
		fmt.Fprintf(&b, "  %s │ %6s │ %s\n",
			p.Time, cli.FormatTokens(p.Tokens), strings.Repeat("█", barLen))
	}

	if peak.Tokens > 0 {
		fmt.Fprintf(&b, "\n  Peak: %s (%s tokens)\n\n", peak.Time, cli.FormatTokens(peak.Tokens))
	} else {
		b.WriteString("\n  No tokens used in the last 24h.\n\n")
	}
	return b.String()
}
