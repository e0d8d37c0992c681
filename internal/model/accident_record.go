package model

import "time"

// Accident represents a stored accident record.
type Accident struct {
	ID         int64             `json:"id"`
	EventID    string            `json:"event_id"`
	Frame      int               `json:"frame"`
	Timestamp  time.Time         `json:"timestamp"`
	Score      float64           `json:"score"`
	Severity   Severity          `json:"severity"`
	Location   string            `json:"location"`
	PoleID     string            `json:"pole_id"`
	FramePath  string            `json:"frame_path"`
	Detections []StoredDetection `json:"detections,omitempty"`
}

// StoredDetection represents a detection row attached to an accident.
type StoredDetection struct {
	ID         int64   `json:"id"`
	AccidentID int64   `json:"accident_id"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

// AccidentStats contains aggregate numbers about stored accidents.
type AccidentStats struct {
	TotalAccidents int              `json:"total_accidents"`
	PerSeverity    map[Severity]int `json:"per_severity"`
	MaxScore       float64          `json:"max_score"`
	AvgScore       float64          `json:"avg_score"`
	ClassCounts    map[string]int   `json:"class_counts"`
}
