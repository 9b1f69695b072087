package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayusman/goldenreps/internal/config"
)

func TestNew_FileSink(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "goldenreps.log")

	logger, err := New(config.LoggingConfig{Level: "info", File: logFile})
	require.NoError(t, err)

	logger.Debug("hidden at info level")
	logger.Info("rep counted", zap.Int("reps", 3))
	_ = logger.Sync() // stderr sync fails on pipes

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "rep counted", entry["msg"])
	assert.Equal(t, float64(3), entry["reps"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestNew_StderrOnly(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
