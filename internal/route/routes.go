package route

import (
	"net/http"

	"smartpole/internal/config"
	"smartpole/internal/handler"
	"smartpole/internal/logger"
	"smartpole/internal/middleware"
	"smartpole/internal/repository"
	"smartpole/internal/service/metrics"
	"smartpole/internal/service/storage"
	"smartpole/internal/service/websocket"
)

// logLevels maps log endpoints to the files they serve.
var logLevels = []struct{ path, file string }{
	{"/logs/info", logger.InfoFile},
	{"/logs/warning", logger.WarningFile},
	{"/logs/error", logger.ErrorFile},
}

// SetupRoutes registers the alert stream, accident queries, log endpoints and
// metrics, and wraps the mux with the token middleware.
func SetupRoutes(cfg *config.Config, logger *logger.Logger, hub *websocket.HubService,
	accidentRepo repository.AccidentRepository, detectionRepo repository.DetectionRepository,
	accidentLog *storage.AccidentLog, metrics *metrics.Metrics, natsConn handler.ConnectionChecker) http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/alerts", handler.AlertsWebsocketHandler(hub, logger))
	mux.HandleFunc("/api/accidents", handler.GetAccidentsHandler(logger, accidentRepo))
	mux.HandleFunc("/api/accidents/detail", handler.GetAccidentHandler(logger, accidentRepo, detectionRepo))
	mux.HandleFunc("/api/accidents/stats", handler.GetAccidentStatsHandler(logger, accidentRepo, detectionRepo))
	mux.HandleFunc("/api/accidents/frame", handler.ViewFrameHandler(cfg))
	mux.HandleFunc("/api/accidents/delete", handler.DeleteAccidentHandler(cfg, logger, accidentRepo))

	// Log endpoints
	for _, level := range logLevels {
		mux.HandleFunc(level.path, handler.ShowLogsHandler(logger, level.file))
		mux.HandleFunc(level.path+"/clear", handler.ClearLogsHandler(logger, level.file))
	}
	mux.HandleFunc("/logs/accidents", handler.ShowAccidentLogHandler(accidentLog))

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", handler.HealthHandler(logger, natsConn))

	return middleware.AuthMiddleware(cfg.APIToken, mux)
}
