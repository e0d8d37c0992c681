package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityFor_Boundary(t *testing.T) {
	assert.Equal(t, SeverityWarning, SeverityFor(0.85))
	assert.Equal(t, SeverityCritical, SeverityFor(0.850001))
	assert.Equal(t, SeverityWarning, SeverityFor(0.7))
	assert.Equal(t, SeverityCritical, SeverityFor(1.2))
}

func TestBBox_AspectRatio(t *testing.T) {
	assert.Equal(t, 2.0, BBox{X1: 0, Y1: 0, X2: 200, Y2: 100}.AspectRatio())
	assert.Equal(t, 0.0, BBox{X1: 0, Y1: 50, X2: 200, Y2: 50}.AspectRatio())
}

func TestNewAccidentLogEntry_JSONKeys(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	entry := NewAccidentLogEntry(42, at, 0.9, "Highway Section A (Placeholder GPS)", "POLE-001")

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Len(t, raw, 6)
	assert.Equal(t, float64(42), raw["frame"])
	assert.Equal(t, "2025-03-14 09:26:53", raw["timestamp"])
	assert.Equal(t, 0.9, raw["confidence"])
	assert.Equal(t, "CRITICAL", raw["alert_status"])
	assert.Equal(t, "Highway Section A (Placeholder GPS)", raw["location"])
	assert.Equal(t, "POLE-001", raw["pole_id"])
}

func TestSummary_DetectionRate(t *testing.T) {
	assert.Zero(t, Summary{}.DetectionRate())
	assert.InDelta(t, 25.0, Summary{FramesProcessed: 8, AccidentsDetected: 2}.DetectionRate(), 1e-9)
}
