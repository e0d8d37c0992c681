package dto

import (
	"time"

	"smartpole/internal/model"
)

// BufferedFrame holds a flagged frame and its metadata before flushing to disk.
type BufferedFrame struct {
	EventID    string
	CapturedAt time.Time
	Entry      model.AccidentLogEntry
	Detections []model.Detection
	Data       []byte // JPEG, empty when the frame could not be encoded
}
