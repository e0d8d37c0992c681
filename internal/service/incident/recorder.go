// Package incident books every scored frame: metrics, the daily accident log,
// alerts and the frame buffer.
package incident

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"smartpole/internal/dto"
	"smartpole/internal/logger"
	"smartpole/internal/model"
	"smartpole/internal/service/alert"
	"smartpole/internal/service/metrics"
)

// AccidentLog is the durable per-run log of flagged frames.
type AccidentLog interface {
	Append(entry model.AccidentLogEntry) error
}

// FrameSink receives flagged frames for persistence.
type FrameSink interface {
	Add(frame dto.BufferedFrame)
}

// Recorder keeps the run summary and dispatches flagged frames.
// Alerts and frames are optional and may be nil.
type Recorder struct {
	location string
	poleID   string
	log      AccidentLog
	frames   FrameSink
	alerts   alert.Publisher
	metrics  *metrics.Metrics
	logger   *logger.Logger
	newID    func() string

	mu      sync.Mutex
	summary model.Summary
}

// Options groups the Recorder collaborators.
type Options struct {
	Location string
	PoleID   string
	Log      AccidentLog
	Frames   FrameSink
	Alerts   alert.Publisher
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

func NewRecorder(opts Options) *Recorder {
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Recorder{
		location: opts.Location,
		poleID:   opts.PoleID,
		log:      opts.Log,
		frames:   opts.Frames,
		alerts:   opts.Alerts,
		metrics:  m,
		logger:   opts.Logger,
		newID:    uuid.NewString,
	}
}

// Skip counts a frame that could not be scored.
func (r *Recorder) Skip() {
	r.mu.Lock()
	r.summary.FramesProcessed++
	r.mu.Unlock()

	r.metrics.FramesProcessed.Add(1)
	r.metrics.FramesFailed.Add(1)
}

// Record books one scored frame. For a flagged frame it returns the log entry;
// encode is called at most once to obtain the annotated JPEG.
func (r *Recorder) Record(frameNo int, at time.Time, a model.FrameAssessment, encode func() ([]byte, error)) *model.AccidentLogEntry {
	r.metrics.ObserveFrame(a)

	r.mu.Lock()
	r.summary.FramesProcessed++
	if a.Accident {
		r.summary.AccidentsDetected++
	}
	r.mu.Unlock()

	if !a.Accident {
		return nil
	}

	entry := model.NewAccidentLogEntry(frameNo, at, a.Score, r.location, r.poleID)
	r.metrics.ObserveAccident(entry.AlertStatus)
	r.logger.Warning("[ALERT] Accident detected at frame %d | Score: %.2f | %s", frameNo, a.Score, entry.AlertStatus)

	if r.log != nil {
		if err := r.log.Append(entry); err != nil {
			r.logger.Error("Failed to write accident log: %v", err)
		}
	}

	eventID := r.newID()

	if r.alerts != nil {
		msg := dto.AlertMessage{
			Type:       dto.AlertTypeAccident,
			EventID:    eventID,
			Entry:      entry,
			Detections: a.Detections,
		}
		if err := r.alerts.Publish(msg); err != nil {
			r.metrics.AlertsFailed.Add(1)
			r.logger.Warning("Alert delivery incomplete for frame %d: %v", frameNo, err)
		} else {
			r.metrics.AlertsPublished.Add(1)
		}
	}

	if r.frames != nil {
		var data []byte
		if encode != nil {
			var err error
			if data, err = encode(); err != nil {
				r.logger.Warning("Storing frame %d without image: %v", frameNo, err)
			}
		}
		r.frames.Add(dto.BufferedFrame{
			EventID:    eventID,
			CapturedAt: at,
			Entry:      entry,
			Detections: a.Detections,
			Data:       data,
		})
	}

	return &entry
}

// Summary returns the statistics of the run so far.
func (r *Recorder) Summary() model.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// LogSummary writes the end-of-run report.
func (r *Recorder) LogSummary() {
	s := r.Summary()
	r.logger.Info("Total frames processed: %d", s.FramesProcessed)
	r.logger.Info("Accident frames detected: %d", s.AccidentsDetected)
	if s.FramesProcessed > 0 {
		r.logger.Info("Detection rate: %.2f%%", s.DetectionRate())
	}
}
