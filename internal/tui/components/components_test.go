package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

func TestLayoutRow_SumsToTotal(t *testing.T) {
	for _, tc := range []struct{ total, n int }{{100, 3}, {81, 4}, {7, 7}, {10, 1}} {
		sum := 0
		for _, w := range LayoutRow(tc.total, tc.n) {
			sum += w
		}
		assert.Equal(t, tc.total, sum, "LayoutRow(%d, %d)", tc.total, tc.n)
	}
	assert.Nil(t, LayoutRow(10, 0))
}

func TestMetricCardRow_Width(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Today", Value: "45.6K", Detail: "tokens"},
		{Label: "This Month", Value: "12.3M"},
		{Label: "Calls", Value: "4,321"},
	}, 90)

	assert.Equal(t, 90, lipgloss.Width(row))
	plain := ansi.Strip(row)
	assert.Contains(t, plain, "45.6K")
	assert.Contains(t, plain, "tokens")
	assert.Empty(t, MetricCardRow(nil, 90))
}

func TestQuotaBar(t *testing.T) {
	out := ansi.Strip(QuotaBar("MCP", 30, "300/1,000 calls", 6, 20))
	assert.True(t, strings.HasPrefix(out, "MCP    "), out)
	assert.Contains(t, out, " 30%")
	assert.Contains(t, out, "300/1,000 calls")

	clamped := ansi.Strip(QuotaBar("5h", 250, "", 4, 10))
	assert.Contains(t, clamped, "100%")
}

func TestHourlyChart(t *testing.T) {
	assert.Contains(t, ansi.Strip(HourlyChart(nil, 60, 8)), "no hourly data")

	points := []model.HourlyPoint{
		{Time: "2025-03-15 12:00", Tokens: 100},
		{Time: "2025-03-15 13:00", Tokens: 0},
		{Time: "2025-03-15 14:00", Tokens: 900},
	}
	chart := ansi.Strip(HourlyChart(points, 40, 6))
	assert.Contains(t, chart, "12:00 to 14:00")
	assert.GreaterOrEqual(t, strings.Count(chart, "\n"), 6)

	spark := ansi.Strip(HourlyChart(points, 10, 2))
	assert.Equal(t, "▁▁█", spark)
}

func TestSparkline(t *testing.T) {
	assert.Empty(t, Sparkline(nil, lipgloss.Color("1")))
	assert.Equal(t, "▁▁▁", ansi.Strip(Sparkline([]float64{0, 0, 0}, lipgloss.Color("1"))))
}

func TestRenderStatusBar(t *testing.T) {
	out := ansi.Strip(RenderStatusBar(60, "updated 5s ago"))
	assert.Equal(t, 60, lipgloss.Width(out))
	assert.Contains(t, out, "[q]uit")
	assert.True(t, strings.HasSuffix(strings.TrimRight(out, " "), "updated 5s ago"))
}
