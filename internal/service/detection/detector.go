package detection

import (
	"fmt"
	"time"

	"smartgarage/internal/service/camera"
)

// VehicleType is a vehicle class the counter distinguishes.
type VehicleType string

const (
	SmallCar VehicleType = "small-car"
	SUV      VehicleType = "suv"
	Minivan  VehicleType = "minivan"
	FullBus  VehicleType = "fullbus"
)

// VehicleTypes lists every class in dashboard order.
var VehicleTypes = []VehicleType{SmallCar, SUV, Minivan, FullBus}

// Seats is the nominal seat count used for capacity estimates.
func (t VehicleType) Seats() int {
	switch t {
	case SmallCar:
		return 4
	case SUV:
		return 7
	case Minivan:
		return 15
	case FullBus:
		return 45
	}
	return 0
}

// Vehicle is one detection on a frame. BBox is x, y, width, height in pixels.
type Vehicle struct {
	ID         string      `json:"id"`
	Type       VehicleType `json:"type"`
	Confidence float64     `json:"confidence"`
	BBox       [4]int      `json:"bbox"`
	Seats      int         `json:"seats"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Detector finds vehicles on a frame.
type Detector interface {
	Detect(frame camera.Frame) ([]Vehicle, error)
}

// PlaceholderDetector stands in for a model: every frame yields the same
// small car and SUV.
type PlaceholderDetector struct {
	now func() time.Time
}

func NewPlaceholderDetector() *PlaceholderDetector {
	return &PlaceholderDetector{now: time.Now}
}

func (d *PlaceholderDetector) Detect(frame camera.Frame) ([]Vehicle, error) {
	ts := d.now()
	return []Vehicle{
		{
			ID:         fmt.Sprintf("vehicle_%d_1", ts.UnixMilli()),
			Type:       SmallCar,
			Confidence: 0.95,
			BBox:       [4]int{100, 150, 80, 120},
			Seats:      SmallCar.Seats(),
			Timestamp:  ts,
		},
		{
			ID:         fmt.Sprintf("vehicle_%d_2", ts.UnixMilli()),
			Type:       SUV,
			Confidence: 0.88,
			BBox:       [4]int{300, 200, 100, 140},
			Seats:      SUV.Seats(),
			Timestamp:  ts,
		},
	}, nil
}
