package model

// BBox is an axis-aligned bounding box in pixel coordinates.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns X2-X1.
func (b BBox) Width() float64 {
	return b.X2 - b.X1
}

// Height returns Y2-Y1.
func (b BBox) Height() float64 {
	return b.Y2 - b.Y1
}

// AspectRatio returns width/height, or 0 for a zero-height box.
func (b BBox) AspectRatio() float64 {
	h := b.Height()
	if h == 0 {
		return 0
	}
	return b.Width() / h
}

// Detection represents one object found by the detector in a single frame.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Box        BBox    `json:"bbox"`
}

// Object classes the accident heuristic reacts to.
const (
	ClassCar        = "car"
	ClassTruck      = "truck"
	ClassBus        = "bus"
	ClassMotorcycle = "motorcycle"
	ClassPerson     = "person"
	ClassBicycle    = "bicycle"
)

// IsVehicle reports whether the class counts as a road vehicle.
func (d Detection) IsVehicle() bool {
	switch d.Class {
	case ClassCar, ClassTruck, ClassBus, ClassMotorcycle:
		return true
	}
	return false
}

// IsPerson reports whether the detection is a pedestrian.
func (d Detection) IsPerson() bool {
	return d.Class == ClassPerson
}
