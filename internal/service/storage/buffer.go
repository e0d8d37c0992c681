package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"smartpole/internal/config"
	"smartpole/internal/dto"
	"smartpole/internal/logger"
	"smartpole/internal/model"
	"smartpole/internal/repository"
)

// FrameTimestampLayout prefixes stored frame file names.
const FrameTimestampLayout = "20060102_150405.000"

// FrameBuffer keeps flagged frames in memory and periodically writes them to
// disk and to the accident store.
type FrameBuffer struct {
	framesDir    string
	limit        int
	interval     time.Duration
	frames       []dto.BufferedFrame
	withImage    int
	mu           sync.Mutex
	logger       *logger.Logger
	accidentRepo repository.AccidentRepository
}

// NewFrameBuffer creates a FrameBuffer. accidentRepo may be nil, in which case
// only image files are written.
func NewFrameBuffer(cfg *config.Config, logger *logger.Logger, accidentRepo repository.AccidentRepository) *FrameBuffer {
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &FrameBuffer{
		framesDir:    cfg.FrameDirectory,
		limit:        cfg.FrameBufferLimit,
		interval:     interval,
		frames:       make([]dto.BufferedFrame, 0),
		logger:       logger,
		accidentRepo: accidentRepo,
	}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (s *FrameBuffer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-ctx.Done():
			s.Flush()
			return
		}
	}
}

// Add queues a flagged frame. Once the window already holds limit images the
// frame is kept without its image data.
func (s *FrameBuffer) Add(frame dto.BufferedFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(frame.Data) > 0 {
		if s.withImage < s.limit {
			s.withImage++
		} else {
			frame.Data = nil
		}
	}
	s.frames = append(s.frames, frame)
	s.logger.Info("Frame buffer: %d queued, %d/%d images", len(s.frames), s.withImage, s.limit)
}

// Pending returns the number of frames waiting for the next flush.
func (s *FrameBuffer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Flush writes queued images and accident records and resets the window.
// It returns the number of accidents stored.
func (s *FrameBuffer) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.framesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, frame := range s.frames {
		framePath := ""
		if len(frame.Data) > 0 {
			fullpath := filepath.Join(s.framesDir, FrameFileName(frame))
			if err := os.WriteFile(fullpath, frame.Data, 0644); err != nil {
				s.logger.Error("Error saving frame %s: %v", fullpath, err)
			} else {
				framePath = fullpath
			}
		}

		if s.accidentRepo != nil {
			acc := toAccident(frame, framePath)
			if _, err := s.accidentRepo.Insert(&acc); err != nil {
				s.logger.Error("Error saving accident %s to database: %v", frame.EventID, err)
				continue
			}
		}

		savedCount++
	}

	s.logger.Info("Flushed %d accident frames", savedCount)
	s.frames = s.frames[:0]
	s.withImage = 0
	return savedCount
}

// FrameFileName builds "<timestamp>_frame<N>_<severity>.jpg".
func FrameFileName(frame dto.BufferedFrame) string {
	return fmt.Sprintf("%s_frame%d_%s.jpg",
		frame.CapturedAt.Format(FrameTimestampLayout),
		frame.Entry.Frame,
		strings.ToLower(string(frame.Entry.AlertStatus)))
}

func toAccident(frame dto.BufferedFrame, framePath string) model.Accident {
	acc := model.Accident{
		EventID:   frame.EventID,
		Frame:     frame.Entry.Frame,
		Timestamp: frame.CapturedAt,
		Score:     frame.Entry.Confidence,
		Severity:  frame.Entry.AlertStatus,
		Location:  frame.Entry.Location,
		PoleID:    frame.Entry.PoleID,
		FramePath: framePath,
	}

	for _, det := range frame.Detections {
		acc.Detections = append(acc.Detections, model.StoredDetection{
			Class:      det.Class,
			Confidence: det.Confidence,
			X1:         det.Box.X1,
			Y1:         det.Box.Y1,
			X2:         det.Box.X2,
			Y2:         det.Box.Y2,
		})
	}
	return acc
}
