package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"smartpole/internal/logger"
	"smartpole/internal/service/storage"
)

// ShowLogsHandler serves one of the leveled log files as text/plain.
func ShowLogsHandler(logger *logger.Logger, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveLogFile(w, r, logger.Dir(), filename, "text/plain; charset=utf-8")
	}
}

// ShowAccidentLogHandler serves today's JSON accident log.
func ShowAccidentLogHandler(sink *storage.AccidentLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := sink.Path()
		serveLogFile(w, r, filepath.Dir(path), filepath.Base(path), "application/json")
	}
}

// serveLogFile is a helper that sets headers and serves a log file if it exists.
func serveLogFile(w http.ResponseWriter, r *http.Request, logDir, filename, contentType string) {
	filePath := filepath.Join(logDir, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found: " + filename))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")

	http.ServeFile(w, r, filePath)
}

// ClearLogsHandler truncates a leveled log file via the logger utility.
func ClearLogsHandler(logger *logger.Logger, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := logger.CleanLogs(filename); err != nil {
			http.Error(w, "Unable to clear "+filename, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ConnectionChecker reports whether an outbound client is connected.
type ConnectionChecker interface {
	IsConnected() bool
}

// HealthHandler reports liveness and the alert bus connection. nats is nil
// when no bus is configured.
func HealthHandler(logger *logger.Logger, nats ConnectionChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{"status": "ok", "nats": "disabled"}
		if nats != nil {
			health["nats"] = "disconnected"
			if nats.IsConnected() {
				health["nats"] = "connected"
			}
		}
		writeJSON(w, logger, http.StatusOK, health)
	}
}
