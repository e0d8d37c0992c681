package postprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpole/internal/model"
)

// yoloOutput lays candidates out attribute-major, as the network does.
func yoloOutput(classes int, cands [][]float32) []float32 {
	attrs := 4 + classes
	data := make([]float32, attrs*len(cands))
	for i, c := range cands {
		for a := 0; a < attrs; a++ {
			data[a*len(cands)+i] = c[a]
		}
	}
	return data
}

func TestDecodeYOLO(t *testing.T) {
	// two classes; the frame is twice the input size on both axes
	data := yoloOutput(2, [][]float32{
		{100, 100, 40, 20, 0.9, 0.1},
		{300, 300, 10, 10, 0.2, 0.3},
		{630, 10, 40, 40, 0.1, 0.8},
	})

	cands, err := DecodeYOLO(data, 6, 3, 1280, 1280, 640, 0.5)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.Equal(t, 0, cands[0].ClassID)
	assert.InDelta(t, 0.9, cands[0].Confidence, 1e-6)
	assert.InDelta(t, 160, cands[0].Box.X1, 1e-6)
	assert.InDelta(t, 180, cands[0].Box.Y1, 1e-6)
	assert.InDelta(t, 240, cands[0].Box.X2, 1e-6)
	assert.InDelta(t, 220, cands[0].Box.Y2, 1e-6)

	assert.Equal(t, 1, cands[1].ClassID)
	assert.InDelta(t, 1280, cands[1].Box.X2, 1e-6, "clamped to the frame")
	assert.InDelta(t, 0, cands[1].Box.Y1, 1e-6, "clamped to the frame")
}

func TestDecodeYOLO_BadShape(t *testing.T) {
	_, err := DecodeYOLO(make([]float32, 10), 6, 3, 640, 640, 640, 0.5)
	assert.ErrorIs(t, err, ErrShape)

	_, err = DecodeYOLO(make([]float32, 12), 4, 3, 640, 640, 640, 0.5)
	assert.ErrorIs(t, err, ErrShape)
}

func TestDecodeSSD(t *testing.T) {
	data := []float32{
		0, 3, 0.95, 0.1, 0.2, 0.5, 0.6,
		0, 1, 0.30, 0.0, 0.0, 1.0, 1.0,
		0, 8, 0.70, 0.9, 0.9, 1.2, 1.1,
	}

	cands, err := DecodeSSD(data, 200, 100, 0.5)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.Equal(t, 3, cands[0].ClassID)
	assert.InDelta(t, 20, cands[0].Box.X1, 1e-4)
	assert.InDelta(t, 20, cands[0].Box.Y1, 1e-4)
	assert.InDelta(t, 100, cands[0].Box.X2, 1e-4)
	assert.InDelta(t, 60, cands[0].Box.Y2, 1e-4)

	assert.Equal(t, 8, cands[1].ClassID)
	assert.InDelta(t, 200, cands[1].Box.X2, 1e-4)
	assert.InDelta(t, 100, cands[1].Box.Y2, 1e-4)

	_, err = DecodeSSD(make([]float32, 8), 200, 100, 0.5)
	assert.ErrorIs(t, err, ErrShape)
}

func TestNMS_KeepsBestOfOverlappingPair(t *testing.T) {
	cands := []Candidate{
		{ClassID: 2, Confidence: 0.6, Box: model.BBox{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{ClassID: 2, Confidence: 0.9, Box: model.BBox{X1: 5, Y1: 5, X2: 105, Y2: 105}},
		{ClassID: 0, Confidence: 0.5, Box: model.BBox{X1: 5, Y1: 5, X2: 105, Y2: 105}},
		{ClassID: 2, Confidence: 0.7, Box: model.BBox{X1: 300, Y1: 300, X2: 350, Y2: 350}},
	}

	kept := NMS(cands, 0.45)
	require.Len(t, kept, 3)
	assert.InDelta(t, 0.9, kept[0].Confidence, 1e-9)
	assert.InDelta(t, 0.7, kept[1].Confidence, 1e-9)
	assert.Equal(t, 0, kept[2].ClassID, "other classes are not suppressed")

	assert.Empty(t, NMS(nil, 0.45))
}

func TestIoU(t *testing.T) {
	a := model.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}

	assert.InDelta(t, 1.0, IoU(a, a), 1e-9)
	assert.InDelta(t, 0.0, IoU(a, model.BBox{X1: 10, Y1: 0, X2: 20, Y2: 10}), 1e-9)
	assert.InDelta(t, 25.0/175.0, IoU(a, model.BBox{X1: 5, Y1: 5, X2: 15, Y2: 15}), 1e-9)
	assert.InDelta(t, 0.0, IoU(model.BBox{}, model.BBox{}), 1e-9)
}

func TestClamp(t *testing.T) {
	b := Clamp(model.BBox{X1: -5, Y1: 20, X2: 50, Y2: 10}, 40, 30)
	assert.Equal(t, model.BBox{X1: 0, Y1: 10, X2: 40, Y2: 20}, b)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "person", COCO80.Label(0))
	assert.Equal(t, "car", COCO80.Label(2))
	assert.Equal(t, "truck", COCO80.Label(7))
	assert.Equal(t, "class_80", COCO80.Label(80))
	assert.Len(t, COCO80, 80)

	assert.Equal(t, "person", COCO91.Label(1))
	assert.Equal(t, "bus", COCO91.Label(6))
	assert.Equal(t, "class_12", COCO91.Label(12))
}

func TestLoadClassNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.txt")
	require.NoError(t, os.WriteFile(path, []byte("car\n person \ntruck\n\n"), 0644))

	names, err := LoadClassNames(path)
	require.NoError(t, err)
	assert.Equal(t, NameList{"car", "person", "truck"}, names)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0644))
	_, err = LoadClassNames(empty)
	assert.Error(t, err)

	_, err = LoadClassNames(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestToDetections(t *testing.T) {
	dets := ToDetections([]Candidate{
		{ClassID: 2, Confidence: 1.2, Box: model.BBox{X2: 10, Y2: 5}},
	}, COCO80)

	require.Len(t, dets, 1)
	assert.Equal(t, model.ClassCar, dets[0].Class)
	assert.Equal(t, 1.0, dets[0].Confidence)
}
