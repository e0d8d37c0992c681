package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartpole/internal/model"
	"smartpole/internal/repository"
)

// ImportResult reports what an import run did.
type ImportResult struct {
	Files    int
	Imported int
	Existing int
	Skipped  int
}

// LegacyEventID derives a stable event id for an entry read from a daily log,
// so importing the same file twice does not duplicate accidents.
func LegacyEventID(e model.AccidentLogEntry) string {
	key := fmt.Sprintf("%s|%d|%s", e.PoleID, e.Frame, e.Timestamp)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// ImportAccidentLogs loads every accident_log_YYYYMMDD.json in dir into repo.
func ImportAccidentLogs(dir string, repo repository.AccidentRepository) (ImportResult, error) {
	var result ImportResult

	paths, err := filepath.Glob(filepath.Join(dir, AccidentLogPrefix+"*.json"))
	if err != nil {
		return result, err
	}
	sort.Strings(paths)

	for _, path := range paths {
		day := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), AccidentLogPrefix), ".json")
		if _, err := time.Parse(AccidentLogDateLayout, day); err != nil {
			continue
		}

		entries, err := ReadAccidentLog(path)
		if err != nil {
			return result, err
		}
		result.Files++

		var batch []model.Accident
		for _, e := range entries {
			at, err := time.ParseInLocation(model.TimestampLayout, e.Timestamp, time.Local)
			if err != nil {
				result.Skipped++
				continue
			}

			eventID := LegacyEventID(e)
			existing, err := repo.GetByEventID(eventID)
			if err != nil {
				return result, err
			}
			if existing != nil {
				result.Existing++
				continue
			}

			severity := e.AlertStatus
			if severity == "" {
				severity = model.SeverityFor(e.Confidence)
			}
			batch = append(batch, model.Accident{
				EventID:   eventID,
				Frame:     e.Frame,
				Timestamp: at,
				Score:     e.Confidence,
				Severity:  severity,
				Location:  e.Location,
				PoleID:    e.PoleID,
			})
		}

		if len(batch) == 0 {
			continue
		}
		if err := repo.InsertBatch(batch); err != nil {
			return result, fmt.Errorf("failed to import %s: %w", path, err)
		}
		result.Imported += len(batch)
	}

	if result.Files == 0 {
		return result, fmt.Errorf("no accident logs found in %s: %w", dir, os.ErrNotExist)
	}
	return result, nil
}
