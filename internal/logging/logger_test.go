package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_DisabledIsNop(t *testing.T) {
	l, err := New(false, "")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))
}

func TestNew_DebugWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	l, err := New(true, path)
	require.NoError(t, err)

	l.Debug("cache miss", zap.String("metric", "daily"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"cache miss"`)
	assert.Contains(t, string(data), `"metric":"daily"`)
}

func TestNew_DebugRequiresFile(t *testing.T) {
	_, err := New(true, "")
	assert.Error(t, err)
}
