package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpole/internal/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAccidentLog_RewritesWholeArray(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "accident_logs")
	day := time.Date(2025, 3, 14, 10, 30, 0, 0, time.Local)

	sink := NewAccidentLog(dir)
	sink.now = fixedClock(day)

	first := model.NewAccidentLogEntry(12, day, 0.9, "Highway Section A (Placeholder GPS)", "POLE-001")
	second := model.NewAccidentLogEntry(13, day, 0.7, "Highway Section A (Placeholder GPS)", "POLE-001")

	require.NoError(t, sink.Append(first))
	path := filepath.Join(dir, "accident_log_20250314.json")
	assert.Equal(t, path, sink.Path())

	entries, err := ReadAccidentLog(path)
	require.NoError(t, err)
	assert.Equal(t, []model.AccidentLogEntry{first}, entries)

	require.NoError(t, sink.Append(second))
	entries, err = ReadAccidentLog(path)
	require.NoError(t, err)
	assert.Equal(t, []model.AccidentLogEntry{first, second}, entries)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {", "file is indented")

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "CRITICAL", raw[0]["alert_status"])
	assert.Equal(t, "WARNING", raw[1]["alert_status"])
	assert.Equal(t, "2025-03-14 10:30:00", raw[0]["timestamp"])
}

func TestAccidentLog_DateTakenAtWriteTime(t *testing.T) {
	dir := t.TempDir()
	sink := NewAccidentLog(dir)

	sink.now = fixedClock(time.Date(2025, 3, 14, 23, 59, 59, 0, time.Local))
	require.NoError(t, sink.Append(model.AccidentLogEntry{Frame: 1}))

	sink.now = fixedClock(time.Date(2025, 3, 15, 0, 0, 1, 0, time.Local))
	require.NoError(t, sink.Append(model.AccidentLogEntry{Frame: 2}))

	yesterday, err := ReadAccidentLog(filepath.Join(dir, "accident_log_20250314.json"))
	require.NoError(t, err)
	assert.Len(t, yesterday, 1)

	today, err := ReadAccidentLog(filepath.Join(dir, "accident_log_20250315.json"))
	require.NoError(t, err)
	assert.Len(t, today, 2, "the run's full list goes to the current day's file")
}

func TestAccidentLog_EntriesReturnsCopy(t *testing.T) {
	sink := NewAccidentLog(t.TempDir())
	require.NoError(t, sink.Append(model.AccidentLogEntry{Frame: 1}))

	entries := sink.Entries()
	entries[0].Frame = 99

	assert.Equal(t, 1, sink.Entries()[0].Frame)
}

func TestAccidentLog_ConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	sink := NewAccidentLog(dir)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(frame int) {
			defer wg.Done()
			assert.NoError(t, sink.Append(model.AccidentLogEntry{Frame: frame}))
		}(i)
	}
	wg.Wait()

	entries, err := ReadAccidentLog(sink.Path())
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestAccidentLog_WriteFailureKeepsEntry(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	sink := NewAccidentLog(filepath.Join(blocker, "logs"))
	assert.Error(t, sink.Append(model.AccidentLogEntry{Frame: 5}))
	assert.Len(t, sink.Entries(), 1)
}
