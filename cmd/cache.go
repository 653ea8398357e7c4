package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/glm-statusline/internal/cli"
	"github.com/theirongolddev/glm-statusline/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the usage cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the age and freshness of each cached metric",
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached metrics",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStatus(_ *cobra.Command, _ []string) error {
	a := setup()
	defer a.close()

	rows := make([][]string, 0, 3)
	for _, e := range a.cache.Status() {
		age := "-"
		if e.State == store.Fresh || e.State == store.Stale {
			age = cli.FormatAge(e.Age)
		}
		size := "-"
		if e.Size > 0 {
			size = cli.FormatNumber(e.Size) + " B"
		}
		rows = append(rows, []string{string(e.Metric), e.State.String(), age, cli.FormatAge(e.TTL), size})
	}

	fmt.Println()
	fmt.Printf("  Cache dir: %s\n\n", a.cache.Dir())
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "State", "Age", "TTL", "Size"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	a := setup()
	defer a.close()

	if err := a.cache.ClearAll(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Printf("  Cleared cache in %s\n", a.cache.Dir())
	return nil
}
