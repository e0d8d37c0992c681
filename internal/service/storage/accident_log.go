package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"smartpole/internal/model"
)

// AccidentLogPrefix and AccidentLogDateLayout name the daily log files.
const (
	AccidentLogPrefix     = "accident_log_"
	AccidentLogDateLayout = "20060102"
)

// AccidentLog keeps every entry of the current run and mirrors the full list
// into the daily JSON file after each append.
type AccidentLog struct {
	dir     string
	entries []model.AccidentLogEntry
	now     func() time.Time
	mu      sync.Mutex
}

// NewAccidentLog creates a sink writing into dir. The directory is created on first append.
func NewAccidentLog(dir string) *AccidentLog {
	return &AccidentLog{
		dir:     dir,
		entries: make([]model.AccidentLogEntry, 0),
		now:     time.Now,
	}
}

// AccidentLogFileName returns the file name for the given day.
func AccidentLogFileName(day time.Time) string {
	return AccidentLogPrefix + day.Format(AccidentLogDateLayout) + ".json"
}

// Path returns the file the next append will write.
func (l *AccidentLog) Path() string {
	return filepath.Join(l.dir, AccidentLogFileName(l.now()))
}

// Append adds the entry and rewrites today's file with the whole list.
// The entry stays in memory even if the write fails.
func (l *AccidentLog) Append(entry model.AccidentLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create accident log directory: %w", err)
	}

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode accident log: %w", err)
	}

	path := l.Path()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write accident log %s: %w", path, err)
	}
	return nil
}

// Entries returns a copy of the entries appended so far.
func (l *AccidentLog) Entries() []model.AccidentLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.AccidentLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ReadAccidentLog decodes a daily log file.
func ReadAccidentLog(path string) ([]model.AccidentLogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []model.AccidentLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return entries, nil
}
