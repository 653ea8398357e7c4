package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/glm-statusline/internal/model"
	"github.com/theirongolddev/glm-statusline/internal/source"
)

func sampleSnapshot() *model.UsageSnapshot {
	return &model.UsageSnapshot{
		Monthly: &model.MonthlyUsage{TotalTokens: 12_345_678, TotalCalls: 40},
		Daily:   &model.DailyUsage{DailyTokens: 45_600},
		Quota: &model.QuotaStatus{
			MCPUsage:   model.MCPUsage{Percentage: 30, Current: 300, Total: 1000},
			TokenUsage: model.TokenUsage{Percentage: 85},
			Level:      "pro",
		},
		Platform: "ZHIPU",
	}
}

func sampleContext() source.Context {
	return source.Context{
		Model:        "GLM-4.6",
		ContextUsed:  50,
		ContextSize:  200_000,
		InputTokens:  1000,
		OutputTokens: 500,
	}
}

// plain renders without color.
func plain(ctx source.Context, snap *model.UsageSnapshot, opts StatusOptions) string {
	return ansi.Strip(NewStatusLine(termenv.Ascii).Render(ctx, snap, opts))
}

func TestFormatTokens(t *testing.T) {
	cases := map[int64]string{
		0:             "0",
		999:           "999",
		1234:          "1.2K",
		1_234_567:     "1.2M",
		1_234_567_890: "1.2B",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatTokens(in), "FormatTokens(%d)", in)
	}
}

func TestFormatContextSize(t *testing.T) {
	assert.Equal(t, "200K", FormatContextSize(200_000))
	assert.Equal(t, "1M", FormatContextSize(1_000_000))
	assert.Equal(t, "0", FormatContextSize(0))
}

func TestFormatPercentAndAge(t *testing.T) {
	assert.Equal(t, "45%", FormatPercent(45))
	assert.Equal(t, "12.5%", FormatPercent(12.5))
	assert.Equal(t, "2m 5s", FormatAge(125*time.Second))
	assert.Equal(t, "1h 2m", FormatAge(3725*time.Second))
	assert.Equal(t, "0s", FormatAge(-time.Second))
}

func TestBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░", Bar(0, 8))
	assert.Equal(t, "████░░░░", Bar(50, 8))
	assert.Equal(t, "████████", Bar(100, 8))
	assert.Equal(t, "████████", Bar(250, 8))
}

func TestRender_TwoLines(t *testing.T) {
	out := plain(sampleContext(), sampleSnapshot(), DefaultStatusOptions())

	lines := strings.Split(out, "\n")
	if assert.Len(t, lines, 2) {
		assert.Equal(t, "GLM-4.6 │ Session:1.5K │ Today:45.6K │ Month:12.3M", lines[0])
		assert.Equal(t, "5h ███████░85% │ MCP ██░░░░░░30% │ Ctx ████░░░░50% (200K)", lines[1])
	}
}

func TestRender_Compact(t *testing.T) {
	opts := DefaultStatusOptions()
	opts.Compact = true
	out := plain(sampleContext(), sampleSnapshot(), opts)

	assert.NotContains(t, out, "\n")
	assert.Contains(t, out, "Month:12.3M │ 5h ")
}

func TestRender_LocalHidesRemoteSegments(t *testing.T) {
	out := plain(sampleContext(), nil, DefaultStatusOptions().Local())

	assert.NotContains(t, out, "Today")
	assert.NotContains(t, out, "Month")
	assert.NotContains(t, out, "MCP")
	assert.Contains(t, out, "5h ░░░░░░░░0%")
	assert.Contains(t, out, "Ctx ")
}

func TestRender_ErrorSnapshotRendersZeros(t *testing.T) {
	snap := &model.UsageSnapshot{Platform: "ZAI", Error: "boom"}
	out := plain(source.ParseContext([]byte(`{}`)), snap, DefaultStatusOptions())

	assert.True(t, strings.HasPrefix(out, "GLM │ Session:0 │ Today:0 │ Month:0"))
}

func TestRender_ANSIColors(t *testing.T) {
	out := NewStatusLine(termenv.ANSI).Render(sampleContext(), sampleSnapshot(), DefaultStatusOptions())

	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "\x1b[31m", "85% should be red")
	assert.Contains(t, out, "\x1b[32m", "30% should be green")
	assert.Contains(t, out, "\x1b[33m", "50% should be yellow")

	assert.Equal(t, plain(sampleContext(), sampleSnapshot(), DefaultStatusOptions()), ansi.Strip(out))
}

func TestRenderQuotaBar(t *testing.T) {
	out := ansi.Strip(RenderQuotaBar(300, 1000, 30, 10))
	assert.Equal(t, "[███░░░░░░░] 300/1,000 (30%)", out)
	assert.Empty(t, RenderQuotaBar(1, 0, 0, 10))
}

func TestRenderTable_AlignsWideCells(t *testing.T) {
	out := ansi.Strip(RenderTable(Table{
		Headers: []string{"Metric", "Bar"},
		Rows:    [][]string{{"quota", "██░░"}, {"daily", "x"}},
	}))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	for _, l := range lines[1:] {
		assert.Equal(t, ansi.StringWidth(lines[0]), ansi.StringWidth(l), "row %q", l)
	}
}
