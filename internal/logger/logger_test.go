package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var stdout, stderr bytes.Buffer

	l, err := newLogger(dir, &stdout, &stderr)
	require.NoError(t, err)
	defer l.Close()

	l.Info("frame %d scored", 7)
	l.Warning("slow inference: %dms", 250)
	l.Error("capture failed: %v", "eof")

	info, err := os.ReadFile(filepath.Join(dir, InfoFile))
	require.NoError(t, err)
	assert.Contains(t, string(info), "frame 7 scored")
	assert.NotContains(t, string(info), "capture failed")

	warning, err := os.ReadFile(filepath.Join(dir, WarningFile))
	require.NoError(t, err)
	assert.Contains(t, string(warning), "slow inference: 250ms")

	errorLog, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	require.NoError(t, err)
	assert.Contains(t, string(errorLog), "capture failed: eof")

	assert.Contains(t, stdout.String(), "frame 7 scored")
	assert.Contains(t, stderr.String(), "capture failed: eof")
	assert.Contains(t, stdout.String(), "logger_test.go", "caller file should be reported")
}

func TestLogger_CleanLogs(t *testing.T) {
	dir := t.TempDir()
	var sink bytes.Buffer

	l, err := newLogger(dir, &sink, &sink)
	require.NoError(t, err)
	defer l.Close()

	l.Warning("to be removed")
	require.NoError(t, l.CleanLogs(WarningFile))

	data, err := os.ReadFile(filepath.Join(dir, WarningFile))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLogger_CleanLogsMissingFile(t *testing.T) {
	var sink bytes.Buffer
	l, err := newLogger(t.TempDir(), &sink, &sink)
	require.NoError(t, err)
	defer l.Close()

	assert.Error(t, l.CleanLogs("missing.log"))
}
