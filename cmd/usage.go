package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/glm-statusline/internal/cli"
	"github.com/theirongolddev/glm-statusline/internal/config"
	"github.com/theirongolddev/glm-statusline/internal/model"
)

var flagJSON bool

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show GLM Coding Plan usage in detail",
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the raw usage snapshot as JSON")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, _ []string) error {
	a := setup()
	defer a.close()

	if a.token == "" && !flagJSON {
		fmt.Println()
		fmt.Println("  No auth token configured.")
		fmt.Println()
		fmt.Println("  Set it for Claude Code or save it once:")
		fmt.Printf("    export %s=...                 (environment)\n", config.EnvAuthToken)
		fmt.Println("    glm-statusline setup                         (interactive)")
		fmt.Println()
		return nil
	}

	snap := a.service().Snapshot(commandContext(cmd))

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	if snap.Error != "" {
		return fmt.Errorf("fetch failed: %s", snap.Error)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("GLM CODING PLAN · %s", snap.Platform)))
	fmt.Println()
	fmt.Print(renderUsage(snap))

	if fallbacks := fallbackMetrics(snap); len(fallbacks) > 0 {
		warnStyle := lipgloss.NewStyle().Foreground(cli.ColorYellow)
		fmt.Printf("  %s\n\n", warnStyle.Render("Partial data, showing defaults for: "+strings.Join(fallbacks, ", ")))
	}
	return nil
}

// renderUsage formats a snapshot as the tables printed by the usage command.
func renderUsage(snap model.UsageSnapshot) string {
	var b strings.Builder

	var tokenRows [][]string
	if m := snap.Monthly; m != nil {
		tokenRows = append(tokenRows,
			[]string{"This month", cli.FormatTokens(m.TotalTokens), cli.FormatNumber(m.TotalCalls), origin(snap, model.MetricMonthly)})
	}
	if d := snap.Daily; d != nil {
		tokenRows = append(tokenRows,
			[]string{"Today", cli.FormatTokens(d.DailyTokens), "-", origin(snap, model.MetricDaily)})
	}
	if len(tokenRows) > 0 {
		b.WriteString(cli.RenderTable(cli.Table{
			Title:   "Tokens",
			Headers: []string{"Period", "Tokens", "Calls", "Source"},
			Rows:    tokenRows,
		}))
		b.WriteString("\n")
	}

	if d := snap.Daily; d != nil {
		points := d.Hourly()
		if len(points) > 0 {
			values := make([]float64, len(points))
			for i, p := range points {
				values[i] = float64(p.Tokens)
			}
			fmt.Fprintf(&b, "  Last 24h  %s  %s\n\n", cli.RenderSparkline(values),
				cli.Muted(points[0].Time+" → "+points[len(points)-1].Time))
		}
	}

	if q := snap.Quota; q != nil {
		rows := [][]string{
			{"5-hour tokens", cli.RenderQuotaBar(int64(q.TokenUsage.Percentage), 100, q.TokenUsage.Percentage, 10)},
			{"MCP calls", cli.RenderQuotaBar(q.MCPUsage.Current, q.MCPUsage.Total, q.MCPUsage.Percentage, 10)},
			{"Plan level", q.Level},
			{"Source", origin(snap, model.MetricQuota)},
		}
		b.WriteString(cli.RenderTable(cli.Table{
			Title:   "Quota",
			Headers: []string{"Limit", "Usage"},
			Rows:    rows,
		}))
		b.WriteString("\n")

		if details := mcpDetailRows(q.MCPUsage.Details); len(details) > 0 {
			b.WriteString(cli.RenderTable(cli.Table{
				Title:   "MCP Tools",
				Headers: []string{"Tool", "Calls"},
				Rows:    details,
			}))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// mcpDetailRows renders usageDetails entries, which carry a model code and a count.
func mcpDetailRows(details []json.RawMessage) [][]string {
	var rows [][]string
	for _, raw := range details {
		var d struct {
			ModelCode string  `json:"modelCode"`
			Usage     float64 `json:"usage"`
		}
		if err := json.Unmarshal(raw, &d); err != nil || d.ModelCode == "" {
			continue
		}
		rows = append(rows, []string{d.ModelCode, cli.FormatNumber(int64(d.Usage))})
	}
	return rows
}

func origin(snap model.UsageSnapshot, m model.Metric) string {
	if o, ok := snap.Origins[m]; ok {
		return string(o)
	}
	return "-"
}

func fallbackMetrics(snap model.UsageSnapshot) []string {
	var out []string
	for _, m := range model.Metrics {
		if snap.Origins[m] == model.OriginFallback {
			out = append(out, string(m))
		}
	}
	return out
}
