package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"smartpole/internal/config"
	"smartpole/internal/handler"
	"smartpole/internal/logger"
	"smartpole/internal/repository/sqlite"
	"smartpole/internal/route"
	"smartpole/internal/service"
	"smartpole/internal/service/ai"
	"smartpole/internal/service/alert"
	"smartpole/internal/service/incident"
	"smartpole/internal/service/metrics"
	"smartpole/internal/service/storage"
	"smartpole/internal/service/video"
	"smartpole/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	logger      *logger.Logger
	db          *sqlite.DB
	detector    *ai.DNNDetector
	source      *video.Source
	writer      *video.Writer
	nats        *alert.NatsPublisher
	hubService  *websocket.HubService
	buffer      *storage.FrameBuffer
	accidentLog *storage.AccidentLog
	metrics     *metrics.Metrics
	recorder    *incident.Recorder
	manager     *service.Manager
	server      *http.Server
}

// NewApp opens every resource the detector needs. Any failure is fatal and
// releases what was already opened.
func NewApp(cfg *config.Config) (app *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.detector, err = ai.NewDetector(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("detector unavailable: %w", err)
	}

	idx, isCamera := cfg.CameraIndex()
	a.source, err = video.Open(cfg.VideoSource, idx, isCamera)
	if err != nil {
		return nil, err
	}
	width, height := a.source.Size()
	log.Info("Video properties: %dx%d @ %.0fFPS", width, height, a.source.FPS())

	if cfg.OutputPath != "" {
		a.writer, err = video.NewWriter(cfg.OutputPath, a.source.FPS(), width, height)
		if err != nil {
			return nil, err
		}
		log.Info("Output will be saved to: %s", cfg.OutputPath)
	}

	a.db, err = sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	accidentRepo := sqlite.NewAccidentRepository(a.db)
	detectionRepo := sqlite.NewDetectionRepository(a.db)

	a.metrics = metrics.New()
	a.hubService = websocket.NewHubService(log)
	a.hubService.OnClientCount(func(n int) { a.metrics.AlertClients.Store(int64(n)) })

	publishers := alert.Fanout{alert.NewHubPublisher(a.hubService)}
	if cfg.NatsURL != "" {
		a.nats, err = alert.NewNatsPublisher(cfg.NatsURL, cfg.NatsSubject, log)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, a.nats)
	}

	a.accidentLog = storage.NewAccidentLog(cfg.AccidentLogDir)
	a.buffer = storage.NewFrameBuffer(cfg, log, accidentRepo)
	a.recorder = incident.NewRecorder(incident.Options{
		Location: cfg.Location,
		PoleID:   cfg.PoleID,
		Log:      a.accidentLog,
		Frames:   a.buffer,
		Alerts:   publishers,
		Metrics:  a.metrics,
		Logger:   log,
	})
	a.manager = service.NewManager(a.detector, a.recorder, a.metrics, cfg, log)

	if cfg.ListenAddr != "" {
		var natsConn handler.ConnectionChecker
		if a.nats != nil {
			natsConn = a.nats
		}
		a.server = &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           route.SetupRoutes(cfg, log, a.hubService, accidentRepo, detectionRepo, a.accidentLog, a.metrics, natsConn),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return a, nil
}

// Run processes the stream until it ends, the user quits or ctx is cancelled,
// then stops the background services and releases every resource.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	bgCtx, stop := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.hubService.Run(bgCtx)
	}()
	go func() {
		defer wg.Done()
		a.buffer.Run(bgCtx)
	}()

	if a.server != nil {
		go func() {
			a.logger.Info("HTTP API listening on %s", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("HTTP server failed: %v", err)
			}
		}()
	}

	a.logger.Info("Smart pole %s monitoring %s", a.config.PoleID, a.config.Location)
	a.logger.Info("AI model: %s", a.config.ModelPath)

	var display *video.Display
	if a.config.Display {
		display = video.NewDisplay()
		defer display.Close()
	}

	var writer service.FrameWriter
	if a.writer != nil {
		writer = a.writer
	}
	var shown service.FrameDisplay
	if display != nil {
		shown = display
	}
	runErr := a.manager.Run(ctx, a.source, writer, shown)

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warning("HTTP shutdown: %v", err)
		}
		cancel()
	}

	stop()
	wg.Wait()

	a.recorder.LogSummary()
	a.logger.Info("Accident log: %s", a.accidentLog.Path())
	if a.writer != nil {
		a.logger.Info("Annotated video: %s", a.writer.Path())
	}
	return runErr
}

// Close releases every opened resource. It is safe to call more than once.
func (a *App) Close() {
	if a.source != nil {
		a.source.Close()
		a.source = nil
	}
	if a.writer != nil {
		a.writer.Close()
		a.writer = nil
	}
	if a.detector != nil {
		a.detector.Close()
		a.detector = nil
	}
	if a.nats != nil {
		a.nats.Close()
		a.nats = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database: %v", err)
		}
		a.db = nil
	}
	if a.logger != nil {
		a.logger.Info("Resources released")
		a.logger.Close()
		a.logger = nil
	}
}
