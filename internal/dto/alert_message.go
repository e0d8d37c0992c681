package dto

import "smartpole/internal/model"

// AlertMessage is pushed to live viewers and the alert bus for every flagged frame.
type AlertMessage struct {
	Type       string                 `json:"type"`
	EventID    string                 `json:"event_id"`
	Entry      model.AccidentLogEntry `json:"entry"`
	Detections []model.Detection      `json:"detections"`
}

// AlertTypeAccident marks an accident alert.
const AlertTypeAccident = "accident"
