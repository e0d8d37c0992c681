// Package postprocess turns raw detector network outputs into detections.
// It has no OpenCV dependency so the decoding rules can be tested directly.
package postprocess

import (
	"errors"
	"fmt"

	"smartpole/internal/model"
)

// ErrShape is returned when an output buffer does not match the declared layout.
var ErrShape = errors.New("unexpected output shape")

// Candidate is one decoded box before non-maximum suppression.
type Candidate struct {
	ClassID    int
	Confidence float64
	Box        model.BBox
}

// DecodeYOLO reads a YOLOv8 output laid out as attrs x candidates, where the
// first four attributes are cx, cy, w, h in input pixels and the rest are
// class scores. Boxes are scaled from the square input to the frame size.
func DecodeYOLO(data []float32, attrs, candidates, frameW, frameH, inputSize int, threshold float64) ([]Candidate, error) {
	if attrs < 5 || candidates < 0 || len(data) < attrs*candidates {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrShape, len(data), attrs, candidates)
	}
	if inputSize <= 0 {
		return nil, fmt.Errorf("%w: input size %d", ErrShape, inputSize)
	}

	at := func(attr, i int) float64 { return float64(data[attr*candidates+i]) }
	sx := float64(frameW) / float64(inputSize)
	sy := float64(frameH) / float64(inputSize)

	var out []Candidate
	for i := 0; i < candidates; i++ {
		best, bestScore := -1, 0.0
		for c := 4; c < attrs; c++ {
			if s := at(c, i); s > bestScore {
				best, bestScore = c-4, s
			}
		}
		if best < 0 || bestScore < threshold {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		box := model.BBox{
			X1: (cx - w/2) * sx,
			Y1: (cy - h/2) * sy,
			X2: (cx + w/2) * sx,
			Y2: (cy + h/2) * sy,
		}
		out = append(out, Candidate{ClassID: best, Confidence: bestScore, Box: Clamp(box, frameW, frameH)})
	}
	return out, nil
}

// SSDRowSize is the width of a TensorFlow SSD detection row:
// batch, class, confidence, x1, y1, x2, y2 (coordinates normalised).
const SSDRowSize = 7

// DecodeSSD reads SSD rows and scales them to the frame.
func DecodeSSD(data []float32, frameW, frameH int, threshold float64) ([]Candidate, error) {
	if len(data)%SSDRowSize != 0 {
		return nil, fmt.Errorf("%w: %d values is not a multiple of %d", ErrShape, len(data), SSDRowSize)
	}

	var out []Candidate
	for row := 0; row+SSDRowSize <= len(data); row += SSDRowSize {
		conf := float64(data[row+2])
		if conf < threshold || conf <= 0 {
			continue
		}
		box := model.BBox{
			X1: float64(data[row+3]) * float64(frameW),
			Y1: float64(data[row+4]) * float64(frameH),
			X2: float64(data[row+5]) * float64(frameW),
			Y2: float64(data[row+6]) * float64(frameH),
		}
		out = append(out, Candidate{ClassID: int(data[row+1]), Confidence: conf, Box: Clamp(box, frameW, frameH)})
	}
	return out, nil
}

// Clamp keeps a box inside a w x h frame and fixes inverted corners.
func Clamp(b model.BBox, w, h int) model.BBox {
	clamp := func(v, max float64) float64 {
		if v < 0 {
			return 0
		}
		if v > max {
			return max
		}
		return v
	}
	b.X1, b.X2 = clamp(b.X1, float64(w)), clamp(b.X2, float64(w))
	b.Y1, b.Y2 = clamp(b.Y1, float64(h)), clamp(b.Y2, float64(h))
	if b.X2 < b.X1 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y2 < b.Y1 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
	return b
}

// ToDetections labels candidates and clips confidences to [0,1].
func ToDetections(cands []Candidate, labels Labeler) []model.Detection {
	detections := make([]model.Detection, 0, len(cands))
	for _, c := range cands {
		conf := c.Confidence
		if conf > 1 {
			conf = 1
		}
		detections = append(detections, model.Detection{
			Class:      labels.Label(c.ClassID),
			Confidence: conf,
			Box:        c.Box,
		})
	}
	return detections
}
