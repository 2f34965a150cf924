package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repose.log")
	log := New(&Config{
		Level:    "warn",
		Format:   "json",
		Output:   "file",
		FilePath: path,
		MaxSize:  1,
	})

	log.Info("dropped entry")
	log.Warn("kept entry", zap.String("collection", "Test collection"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"kept entry"`)
	assert.Contains(t, string(data), `"collection":"Test collection"`)
	assert.NotContains(t, string(data), "dropped entry")
}

func TestLDefaults(t *testing.T) {
	l := L()
	require.NotNil(t, l)
	assert.Same(t, l, L())
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}
