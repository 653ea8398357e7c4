package tui

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

type fakeSnapshotter struct {
	calls atomic.Int32
	snap  model.UsageSnapshot
}

func (f *fakeSnapshotter) Snapshot(context.Context) model.UsageSnapshot {
	f.calls.Add(1)
	return f.snap
}

func (f *fakeSnapshotter) Platform() string { return "ZHIPU" }

func sampleSnap() model.UsageSnapshot {
	return model.UsageSnapshot{
		Monthly: &model.MonthlyUsage{TotalTokens: 12_345_678, TotalCalls: 4321},
		Daily: &model.DailyUsage{
			DailyTokens: 45_600,
			HourlyData:  []byte(`{"x_time":["2025-03-15 12:00","2025-03-15 13:00","2025-03-15 14:00"],"tokensUsage":[100,null,45500]}`),
		},
		Quota: &model.QuotaStatus{
			MCPUsage:   model.MCPUsage{Percentage: 30, Current: 300, Total: 1000},
			TokenUsage: model.TokenUsage{Percentage: 85},
			Level:      "max",
		},
		Platform: "ZHIPU",
		Origins: map[model.Metric]model.Origin{
			model.MetricMonthly: model.OriginCache,
			model.MetricDaily:   model.OriginRemote,
			model.MetricQuota:   model.OriginFallback,
		},
	}
}

// step feeds msg through Update and returns the concrete App.
func step(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	require.True(t, ok)
	return next, cmd
}

func loadedApp(t *testing.T, f *fakeSnapshotter, now time.Time) App {
	t.Helper()
	a := NewApp(f, Options{RefreshInterval: time.Minute})
	a.now = func() time.Time { return now }
	a, _ = step(t, a, tea.WindowSizeMsg{Width: 100, Height: 40})
	a, _ = step(t, a, SnapshotMsg{Snap: f.snap, Took: 300 * time.Millisecond})
	return a
}

func TestNewApp_IntervalFloor(t *testing.T) {
	a := NewApp(&fakeSnapshotter{}, Options{RefreshInterval: time.Second})
	assert.Equal(t, 30*time.Second, a.refreshInterval)
	assert.True(t, a.refreshing, "first snapshot is started by Init")
}

func TestApp_SnapshotMsgLoadsView(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.Local)
	f := &fakeSnapshotter{snap: sampleSnap()}
	a := loadedApp(t, f, now)

	assert.True(t, a.loaded)
	assert.False(t, a.refreshing)
	assert.Equal(t, now, a.lastRefresh)

	view := ansi.Strip(a.View())
	assert.Contains(t, view, "plan max")
	assert.Contains(t, view, "45.6K")
	assert.Contains(t, view, "12.3M")
	assert.Contains(t, view, "4,321")
	assert.Contains(t, view, "300/1,000 calls")
	assert.Contains(t, view, "85%")
	assert.Contains(t, view, "monthly:cache")
	assert.Contains(t, view, "quota:fallback")
	assert.Contains(t, view, "in 0.3s")
}

func TestApp_ErrorSnapshot(t *testing.T) {
	f := &fakeSnapshotter{snap: model.UsageSnapshot{Platform: "ZAI", Error: "boom"}}
	a := loadedApp(t, f, time.Now())

	view := ansi.Strip(a.View())
	assert.Contains(t, view, "Error")
	assert.Contains(t, view, "boom")
	assert.Contains(t, view, "plan pro")
}

func TestApp_LoadingAndNarrowViews(t *testing.T) {
	a := NewApp(&fakeSnapshotter{}, Options{})
	assert.Empty(t, a.View())

	a, _ = step(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, ansi.Strip(a.View()), "Fetching usage")

	a, _ = step(t, a, tea.WindowSizeMsg{Width: 40, Height: 30})
	assert.Contains(t, a.View(), "Terminal too narrow")
}

func TestApp_RefreshKey(t *testing.T) {
	f := &fakeSnapshotter{snap: sampleSnap()}
	a := loadedApp(t, f, time.Now())

	a, cmd := step(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, a.refreshing)

	msg := cmd()
	_, ok := msg.(SnapshotMsg)
	assert.True(t, ok)
	assert.Equal(t, int32(1), f.calls.Load())

	// A second press while in flight is ignored.
	_, cmd = step(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd)
}

func TestApp_QuitKeys(t *testing.T) {
	a := loadedApp(t, &fakeSnapshotter{snap: sampleSnap()}, time.Now())
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := step(t, a, k)
		require.NotNil(t, cmd, k.String())
		assert.Equal(t, tea.Quit(), cmd(), k.String())
	}
}

func TestApp_TickRefreshesAfterInterval(t *testing.T) {
	start := time.Date(2025, 3, 15, 14, 0, 0, 0, time.Local)
	f := &fakeSnapshotter{snap: sampleSnap()}
	a := loadedApp(t, f, start)

	a, _ = step(t, a, tickMsg{})
	assert.False(t, a.refreshing, "interval not yet elapsed")

	a.now = func() time.Time { return start.Add(time.Minute) }
	a, _ = step(t, a, tickMsg{})
	assert.True(t, a.refreshing)
}

func TestApp_CacheChangedRefreshes(t *testing.T) {
	a := loadedApp(t, &fakeSnapshotter{snap: sampleSnap()}, time.Now())

	a, cmd := step(t, a, CacheChangedMsg{Metric: model.MetricDaily})
	assert.NotNil(t, cmd)
	assert.True(t, a.refreshing)
}
