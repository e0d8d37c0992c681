package model

import "time"

// Severity labels written to the accident log.
type Severity string

const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// CriticalScore is the score above which an accident is CRITICAL.
const CriticalScore = 0.85

// SeverityFor maps an accident score to its alert label. The comparison is strict.
func SeverityFor(score float64) Severity {
	if score > CriticalScore {
		return SeverityCritical
	}
	return SeverityWarning
}

// FrameAssessment is the scorer's verdict for one frame.
type FrameAssessment struct {
	Accident   bool
	Score      float64
	Detections []Detection
}

// TimestampLayout is the wall-clock format used in logs and overlays.
const TimestampLayout = "2006-01-02 15:04:05"

// AccidentLogEntry is one record of the daily accident log.
type AccidentLogEntry struct {
	Frame       int      `json:"frame"`
	Timestamp   string   `json:"timestamp"`
	Confidence  float64  `json:"confidence"`
	AlertStatus Severity `json:"alert_status"`
	Location    string   `json:"location"`
	PoleID      string   `json:"pole_id"`
}

// NewAccidentLogEntry builds a log entry for a flagged frame.
func NewAccidentLogEntry(frame int, at time.Time, score float64, location, poleID string) AccidentLogEntry {
	return AccidentLogEntry{
		Frame:       frame,
		Timestamp:   at.Format(TimestampLayout),
		Confidence:  score,
		AlertStatus: SeverityFor(score),
		Location:    location,
		PoleID:      poleID,
	}
}

// Summary holds run statistics reported at shutdown.
type Summary struct {
	FramesProcessed   int `json:"frames_processed"`
	AccidentsDetected int `json:"accidents_detected"`
}

// DetectionRate returns the share of flagged frames in percent, or 0 for an empty run.
func (s Summary) DetectionRate() float64 {
	if s.FramesProcessed == 0 {
		return 0
	}
	return float64(s.AccidentsDetected) / float64(s.FramesProcessed) * 100
}
