package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"smartpole/internal/config"
	"smartpole/internal/logger"
	"smartpole/internal/model"
	"smartpole/internal/service/ai"
	"smartpole/internal/service/incident"
	"smartpole/internal/service/metrics"
	"smartpole/internal/service/overlay"
	"smartpole/internal/service/scorer"
	"smartpole/internal/service/video"
)

// FrameWriter receives every annotated frame.
type FrameWriter interface {
	Write(frame gocv.Mat) error
}

// FrameDisplay shows annotated frames and reports key presses.
type FrameDisplay interface {
	Show(frame gocv.Mat) video.Key
}

// Manager runs the frame loop: read, detect, score, annotate, record, write, display.
type Manager struct {
	detector    ai.Detector
	recorder    *incident.Recorder
	metrics     *metrics.Metrics
	logger      *logger.Logger
	snapshotDir string
	now         func() time.Time
}

func NewManager(detector ai.Detector, recorder *incident.Recorder, metrics *metrics.Metrics,
	config *config.Config, logger *logger.Logger) *Manager {
	return &Manager{
		detector:    detector,
		recorder:    recorder,
		metrics:     metrics,
		logger:      logger,
		snapshotDir: config.SnapshotDir,
		now:         time.Now,
	}
}

// Run processes frames until the stream ends, q is pressed or ctx is cancelled.
// writer and display may be nil. The caller owns and releases them.
func (m *Manager) Run(ctx context.Context, source *video.Source, writer FrameWriter, display FrameDisplay) error {
	frame := gocv.NewMat()
	defer frame.Close()

	m.logger.Info("Processing %s, press 'q' to quit and 's' to save a snapshot", source.Name())

	frameNo := 0
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Detection stopped by user")
			return nil
		default:
		}

		if !source.Read(&frame) {
			m.logger.Info("End of video stream")
			return nil
		}
		frameNo++

		if !m.step(&frame, frameNo, writer, display) {
			m.logger.Info("Quit requested at frame %d", frameNo)
			return nil
		}
	}
}

// step handles one frame. It returns false when the loop should stop.
func (m *Manager) step(frame *gocv.Mat, frameNo int, writer FrameWriter, display FrameDisplay) bool {
	m.ProcessFrame(frame, frameNo)

	if writer != nil {
		if err := writer.Write(*frame); err != nil {
			m.logger.Error("Failed to write frame %d: %v", frameNo, err)
		}
	}

	if display == nil {
		return true
	}

	switch display.Show(*frame) {
	case video.KeyQuit:
		return false
	case video.KeySnapshot:
		if path, err := m.Snapshot(*frame, frameNo); err != nil {
			m.logger.Error("Snapshot failed: %v", err)
		} else {
			m.logger.Info("Frame saved: %s", path)
		}
	}
	return true
}

// ProcessFrame detects, scores, annotates and records one frame in place.
// It returns nil when the frame could not be scored.
func (m *Manager) ProcessFrame(frame *gocv.Mat, frameNo int) *model.FrameAssessment {
	start := time.Now()
	detections, err := m.detector.Detect(*frame)
	elapsed := time.Since(start)
	if timer, ok := m.detector.(ai.InferenceTimer); ok {
		elapsed = timer.LastInference()
	}
	m.metrics.ObserveInference(elapsed)
	if err != nil {
		m.logger.Error("Detection failed on frame %d: %v", frameNo, err)
		m.recorder.Skip()
		return nil
	}

	assessment, err := scorer.Score(detections)
	if err != nil {
		m.logger.Error("Scoring failed on frame %d: %v", frameNo, err)
		m.recorder.Skip()
		return nil
	}

	at := m.now()
	if err := overlay.Annotate(frame, assessment, frameNo, at); err != nil {
		m.logger.Warning("Overlay failed on frame %d: %v", frameNo, err)
	}

	m.recorder.Record(frameNo, at, assessment, func() ([]byte, error) {
		return overlay.EncodeJPEG(*frame)
	})
	return &assessment
}

// Snapshot writes frame to <snapshotDir>/accident_frame_<n>.jpg.
func (m *Manager) Snapshot(frame gocv.Mat, frameNo int) (string, error) {
	if err := os.MkdirAll(m.snapshotDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	path := filepath.Join(m.snapshotDir, fmt.Sprintf("accident_frame_%d.jpg", frameNo))
	if !gocv.IMWrite(path, frame) {
		return "", fmt.Errorf("failed to write %s", path)
	}
	return path, nil
}
