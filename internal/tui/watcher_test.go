package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

func TestMetricOf(t *testing.T) {
	m, ok := metricOf("/tmp/cache/quota.json")
	assert.True(t, ok)
	assert.Equal(t, model.MetricQuota, m)

	for _, p := range []string{"/tmp/cache/debug.log", "/tmp/cache/other.json", "/tmp/cache/quota.json.tmp"} {
		_, ok := metricOf(p)
		assert.False(t, ok, p)
	}
}

func TestWatcher_ReportsCacheWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	got := make(chan any, 1)
	go func() { got <- w.Wait()() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "daily.json"), []byte(`{}`), 0o600))

	select {
	case msg := <-got:
		assert.Equal(t, CacheChangedMsg{Metric: model.MetricDaily}, msg)
	case <-time.After(3 * time.Second):
		t.Fatal("no cache change reported")
	}
}

func TestWatcher_CloseUnblocksWait(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)

	got := make(chan any, 1)
	go func() { got <- w.Wait()() }()

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	select {
	case msg := <-got:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Close")
	}
}
