package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Deathfireofdoom/staged-kv-store/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.log")
	logger, err := NewLogger(config.LogConfig{Level: "warn", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, `"msg":"kept"`), out)
	assert.False(t, strings.Contains(out, "dropped"), out)
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}
