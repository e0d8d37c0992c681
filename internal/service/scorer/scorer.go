// Package scorer turns the detections of a single frame into an accident verdict.
package scorer

import (
	"errors"
	"fmt"
	"math"

	"smartpole/internal/model"
)

// ErrInvalidDetection is returned when a detection is missing data the heuristic needs.
var ErrInvalidDetection = errors.New("invalid detection")

const (
	// AccidentThreshold is the score at which a frame is flagged.
	AccidentThreshold = 0.7

	abnormalVehicleWeight = 0.3
	personWeight          = 0.4
	multiVehicleBonus     = 0.3
	abnormalBonus         = 0.4
	personBonus           = 0.2

	minNormalAspect = 0.5
	maxNormalAspect = 3.0
)

// tally is the result of folding over one frame's detections.
type tally struct {
	score    float64
	vehicles int
	abnormal int
	persons  int
}

func (t tally) add(d model.Detection) tally {
	if d.IsVehicle() {
		t.vehicles++
		if r := d.Box.AspectRatio(); r < minNormalAspect || r > maxNormalAspect {
			t.abnormal++
			t.score += abnormalVehicleWeight
		}
	}
	if d.IsPerson() {
		t.persons++
		t.score += personWeight
	}
	return t
}

func (t tally) total() float64 {
	score := t.score
	if t.vehicles >= 2 {
		score += multiVehicleBonus
	}
	if t.abnormal > 0 {
		score += abnormalBonus
	}
	if t.persons >= 1 {
		score += personBonus
	}
	return score
}

// Score assesses one frame. It has no side effects and keeps no state between calls.
func Score(detections []model.Detection) (model.FrameAssessment, error) {
	var t tally
	for i, d := range detections {
		if err := Validate(d); err != nil {
			return model.FrameAssessment{}, fmt.Errorf("detection %d: %w", i, err)
		}
		t = t.add(d)
	}

	score := t.total()
	return model.FrameAssessment{
		Accident:   score >= AccidentThreshold,
		Score:      score,
		Detections: detections,
	}, nil
}

// Validate checks the preconditions the heuristic relies on.
func Validate(d model.Detection) error {
	if d.Class == "" {
		return fmt.Errorf("%w: missing class label", ErrInvalidDetection)
	}
	if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidDetection, d.Confidence)
	}
	for _, v := range []float64{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite box %+v", ErrInvalidDetection, d.Box)
		}
	}
	if d.Box.X2 < d.Box.X1 || d.Box.Y2 < d.Box.Y1 {
		return fmt.Errorf("%w: inverted box %+v", ErrInvalidDetection, d.Box)
	}
	return nil
}
