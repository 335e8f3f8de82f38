package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerAdapter_FieldsAreCarried(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(core)

	log.WithField("run_id", "r-1").
		WithFields(map[string]any{"portal": "demo", "step": 2}).
		Info("Format detected", "kind", "table")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Format detected", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "r-1", fields["run_id"])
	assert.Equal(t, "demo", fields["portal"])
	assert.EqualValues(t, 2, fields["step"])
	assert.Equal(t, "table", fields["kind"])
}

func TestLoggerAdapter_WithFieldDoesNotLeak(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(core)

	_ = log.WithField("scoped", true)
	log.Warn("plain")

	require.Len(t, logs.All(), 1)
	_, ok := logs.All()[0].ContextMap()["scoped"]
	assert.False(t, ok)
}

func TestNewLoggerAdapter_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLoggerAdapter("queue list / clinic A", Config{Dir: dir, Level: "debug"})
	require.NoError(t, err)

	log.Debug("Strategy tried", "pattern", "#nric")
	require.NoError(t, log.Close())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].Name(), "_queue_list___clinic_A.log"), files[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Strategy tried"`)
	assert.Contains(t, string(data), `"pattern":"#nric"`)
}

func TestNewLoggerAdapter_RejectsBadLevel(t *testing.T) {
	_, err := NewLoggerAdapter("x", Config{Dir: t.TempDir(), Level: "loud"})
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "run", sanitize("///"))
	assert.Equal(t, "abc-1_2", sanitize("abc-1_2"))
	assert.Len(t, sanitize(strings.Repeat("a", 100)), 60)
}
