package ai

import (
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"gocv.io/x/gocv"

	"smartpole/internal/config"
	"smartpole/internal/logger"
	"smartpole/internal/model"
	"smartpole/internal/service/ai/postprocess"
)

const (
	// YOLOInputSize is the square input of YOLOv8 exports.
	YOLOInputSize = 640
	// SSDInputSize is the square input of TensorFlow SSD COCO graphs.
	SSDInputSize = 300
)

var (
	ErrModelNotFound = errors.New("model file not found")
	ErrModelLoad     = errors.New("failed to load network")
)

// Detector produces the detections of one frame.
type Detector interface {
	Detect(frame gocv.Mat) ([]model.Detection, error)
	Close() error
}

// InferenceTimer is implemented by detectors that time their own forward pass.
type InferenceTimer interface {
	LastInference() time.Duration
}

type modelKind int

const (
	kindYOLO modelKind = iota
	kindSSD
)

// DNNDetector runs an OpenCV DNN network: a YOLOv8 ONNX export by default, or
// a TensorFlow SSD graph when a model config is given.
type DNNDetector struct {
	net          gocv.Net
	kind         modelKind
	labels       postprocess.Labeler
	confidence   float64
	nmsThreshold float64
	logger       *logger.Logger
	lastInfer    time.Duration
}

// NewDetector loads the network described by cfg.
func NewDetector(cfg *config.Config, logger *logger.Logger) (*DNNDetector, error) {
	d := &DNNDetector{
		kind:         kindYOLO,
		labels:       postprocess.COCO80,
		confidence:   cfg.Confidence,
		nmsThreshold: cfg.NMSThreshold,
		logger:       logger,
	}

	if err := requireFile(cfg.ModelPath); err != nil {
		return nil, err
	}

	if cfg.ModelConfigPath != "" {
		if err := requireFile(cfg.ModelConfigPath); err != nil {
			return nil, err
		}
		d.kind = kindSSD
		d.labels = postprocess.COCO91
		d.net = gocv.ReadNet(cfg.ModelPath, cfg.ModelConfigPath)
	} else {
		d.net = gocv.ReadNetFromONNX(cfg.ModelPath)
	}

	if d.net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, cfg.ModelPath)
	}

	if cfg.ClassNamesPath != "" {
		names, err := postprocess.LoadClassNames(cfg.ClassNamesPath)
		if err != nil {
			d.net.Close()
			return nil, err
		}
		d.labels = names
	}

	errBackend := d.net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := d.net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		d.net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	logger.Info("Detection network initialized: %s", cfg.ModelPath)
	return d, nil
}

func requireFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no path configured", ErrModelNotFound)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	return nil
}

// Detect runs the network on a BGR frame and returns labelled, clamped boxes.
func (d *DNNDetector) Detect(frame gocv.Mat) ([]model.Detection, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("frame is empty")
	}

	var blob gocv.Mat
	if d.kind == kindSSD {
		blob = gocv.BlobFromImage(frame, 1.0/127.5, image.Pt(SSDInputSize, SSDInputSize), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	} else {
		blob = gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(YOLOInputSize, YOLOInputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	}
	defer blob.Close()

	start := time.Now()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()
	d.lastInfer = time.Since(start)

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	var cands []postprocess.Candidate
	if d.kind == kindSSD {
		cands, err = postprocess.DecodeSSD(data, frame.Cols(), frame.Rows(), d.confidence)
	} else {
		dims := output.Size()
		if len(dims) != 3 {
			return nil, fmt.Errorf("%w: output dims %v", postprocess.ErrShape, dims)
		}
		cands, err = postprocess.DecodeYOLO(data, dims[1], dims[2], frame.Cols(), frame.Rows(), YOLOInputSize, d.confidence)
		cands = postprocess.NMS(cands, d.nmsThreshold)
	}
	if err != nil {
		return nil, err
	}

	return postprocess.ToDetections(cands, d.labels), nil
}

// LastInference reports how long the previous forward pass took.
func (d *DNNDetector) LastInference() time.Duration {
	return d.lastInfer
}

// Close releases the network.
func (d *DNNDetector) Close() error {
	return d.net.Close()
}
