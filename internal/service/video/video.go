// Package video wraps OpenCV capture, encoding and display for the frame loop.
package video

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultFPS is used when the source does not report a frame rate.
const DefaultFPS = 30.0

// OutputCodec is the FourCC of the annotated output video.
const OutputCodec = "mp4v"

var ErrSourceUnavailable = errors.New("video source unavailable")

// Source is an opened camera or video file.
type Source struct {
	capture *gocv.VideoCapture
	name    string
	fps     float64
	width   int
	height  int
}

// Open opens a camera by index when cameraIndex is true, otherwise the path or URL in name.
func Open(name string, index int, cameraIndex bool) (*Source, error) {
	var device interface{} = name
	if cameraIndex {
		device = index
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, name, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, name)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = DefaultFPS
	}

	return &Source{
		capture: capture,
		name:    name,
		fps:     fps,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// Read fills frame with the next image. It returns false at end of stream.
func (s *Source) Read(frame *gocv.Mat) bool {
	return s.capture.Read(frame) && !frame.Empty()
}

func (s *Source) Name() string { return s.name }

func (s *Source) FPS() float64 { return s.fps }

// Size returns the frame width and height reported by the source.
func (s *Source) Size() (int, int) { return s.width, s.height }

func (s *Source) Close() error {
	return s.capture.Close()
}

// Writer encodes annotated frames to a video file.
type Writer struct {
	writer *gocv.VideoWriter
	path   string
}

// NewWriter opens path for writing frames of the given size and rate.
func NewWriter(path string, fps float64, width, height int) (*Writer, error) {
	w, err := gocv.VideoWriterFile(path, OutputCodec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open output video %s: %w", path, err)
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("failed to open output video %s", path)
	}
	return &Writer{writer: w, path: path}, nil
}

func (w *Writer) Write(frame gocv.Mat) error {
	return w.writer.Write(frame)
}

func (w *Writer) Path() string { return w.path }

func (w *Writer) Close() error {
	return w.writer.Close()
}
