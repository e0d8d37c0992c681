package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"smartpole/internal/config"
	"smartpole/internal/dto"
	"smartpole/internal/logger"
	"smartpole/internal/model"
	"smartpole/internal/repository"
)

const defaultPageSize = 24

// GetAccidentsHandler returns a filtered, paginated list of stored accidents.
func GetAccidentsHandler(logger *logger.Logger, accidentRepo repository.AccidentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultPageSize)

		filter := &dto.AccidentFilters{
			Severity:   model.Severity(strings.ToUpper(q.Get("severity"))),
			DateAfter:  parseDate(q.Get("from")),
			DateBefore: parseDate(q.Get("to")),
			MinScore:   parseFloat(q.Get("minScore")),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		accidents, err := accidentRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying accidents from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := accidentRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting accidents: %v", err)
			totalCount = len(accidents)
		}

		if accidents == nil {
			accidents = []model.Accident{}
		}

		writeJSON(w, logger, http.StatusOK, dto.AccidentPage{
			Accidents:   accidents,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// GetAccidentHandler returns one accident with its detections.
func GetAccidentHandler(logger *logger.Logger, accidentRepo repository.AccidentRepository,
	detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "Valid id required", http.StatusBadRequest)
			return
		}

		acc, err := accidentRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading accident %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if acc == nil {
			http.NotFound(w, r)
			return
		}

		acc.Detections, err = detectionRepo.GetByAccidentID(id)
		if err != nil {
			logger.Error("Error loading detections for accident %d: %v", id, err)
		}

		writeJSON(w, logger, http.StatusOK, acc)
	}
}

// GetAccidentStatsHandler returns aggregate accident statistics with the
// per-class detection counts.
func GetAccidentStatsHandler(logger *logger.Logger, accidentRepo repository.AccidentRepository,
	detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := accidentRepo.GetStats()
		if err != nil {
			logger.Error("Error computing accident stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		stats.ClassCounts, err = detectionRepo.GetClassCounts()
		if err != nil {
			logger.Error("Error counting detection classes: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, stats)
	}
}

// DeleteAccidentHandler removes an accident record and its stored frame.
func DeleteAccidentHandler(cfg *config.Config, logger *logger.Logger, accidentRepo repository.AccidentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			w.Header().Set("Allow", "POST, DELETE")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "Valid id required", http.StatusBadRequest)
			return
		}

		acc, err := accidentRepo.GetByID(id)
		if err != nil || acc == nil {
			http.NotFound(w, r)
			return
		}

		if acc.FramePath != "" {
			framePath := filepath.Join(cfg.FrameDirectory, filepath.Base(acc.FramePath))
			if err := os.Remove(framePath); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to delete frame %s: %v", framePath, err)
			}
		}

		if err := accidentRepo.Delete(id); err != nil {
			logger.Error("Failed to delete accident %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted accident %d (%s)", id, acc.EventID)
		writeJSON(w, logger, http.StatusOK, map[string]any{"status": "deleted", "id": id})
	}
}

// ViewFrameHandler serves a stored accident frame named by the "name" query parameter.
func ViewFrameHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Name parameter is required", http.StatusBadRequest)
			return
		}
		filePath := filepath.Join(cfg.FrameDirectory, filepath.Base(name))
		if _, err := os.Stat(filePath); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filePath)
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02".
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
