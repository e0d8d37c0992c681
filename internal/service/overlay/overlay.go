// Package overlay draws detection boxes and the status banner on frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"smartpole/internal/model"
)

const (
	BannerHeight = 100
	BannerAlpha  = 0.3

	StatusAccident   = "ACCIDENT DETECTED!"
	StatusMonitoring = "Monitoring..."
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
)

// Status returns the banner text and its colour.
func Status(accident bool) (string, color.RGBA) {
	if accident {
		return StatusAccident, red
	}
	return StatusMonitoring, green
}

// BoxColor picks the box colour of a detection class.
func BoxColor(class string) color.RGBA {
	switch {
	case class == model.ClassPerson:
		return color.RGBA{R: 255, G: 165, A: 255}
	case model.Detection{Class: class}.IsVehicle():
		return color.RGBA{B: 255, G: 128, A: 255}
	default:
		return white
	}
}

// Annotate draws the detections and then the status banner onto frame.
func Annotate(frame *gocv.Mat, a model.FrameAssessment, frameNo int, at time.Time) error {
	if err := DrawDetections(frame, a.Detections); err != nil {
		return err
	}
	return DrawStatus(frame, a, frameNo, at)
}

// DrawDetections draws a box and a "label conf" caption for each detection.
func DrawDetections(frame *gocv.Mat, detections []model.Detection) error {
	for _, det := range detections {
		c := BoxColor(det.Class)
		rect := image.Rect(int(det.Box.X1), int(det.Box.Y1), int(det.Box.X2), int(det.Box.Y2))
		if err := gocv.Rectangle(frame, rect, c, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		y := rect.Min.Y - 5
		if y < 15 {
			y = rect.Min.Y + 15
		}
		label := fmt.Sprintf("%s %.2f", det.Class, det.Confidence)
		if err := gocv.PutText(frame, label, image.Pt(rect.Min.X, y), gocv.FontHersheySimplex, 0.5, c, 1); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}
	return nil
}

// DrawStatus blends the banner and writes status, score, frame counter and timestamp.
func DrawStatus(frame *gocv.Mat, a model.FrameAssessment, frameNo int, at time.Time) error {
	width, height := frame.Cols(), frame.Rows()

	banner := frame.Clone()
	defer banner.Close()
	if err := gocv.Rectangle(&banner, image.Rect(0, 0, width, BannerHeight), black, -1); err != nil {
		return fmt.Errorf("failed to draw banner: %w", err)
	}
	gocv.AddWeighted(banner, BannerAlpha, *frame, 1-BannerAlpha, 0, frame)

	status, statusColor := Status(a.Accident)
	texts := []struct {
		text  string
		pt    image.Point
		scale float64
		color color.RGBA
		thick int
	}{
		{status, image.Pt(10, 35), 1.2, statusColor, 3},
		{fmt.Sprintf("Confidence: %.2f", a.Score), image.Pt(10, 70), 0.7, white, 2},
		{fmt.Sprintf("Frame: %d", frameNo), image.Pt(width-200, 30), 0.6, white, 2},
		{at.Format(model.TimestampLayout), image.Pt(10, height-15), 0.6, white, 2},
	}
	for _, t := range texts {
		if err := gocv.PutText(frame, t.text, t.pt, gocv.FontHersheySimplex, t.scale, t.color, t.thick); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}
	return nil
}

// EncodeJPEG returns a copy of frame encoded as JPEG.
func EncodeJPEG(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}
