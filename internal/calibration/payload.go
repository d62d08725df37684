package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"smartgarage/internal/geometry"
)

// Direction tells the detection backend which way a crossing is counted.
type Direction int

const (
	Incoming Direction = iota
	Outgoing
)

func (d Direction) String() string {
	if d == Outgoing {
		return "outgoing"
	}
	return "incoming"
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "incoming":
		*d = Incoming
	case "outgoing":
		*d = Outgoing
	default:
		return fmt.Errorf("unknown line direction %q", name)
	}
	return nil
}

// CountingLine is a two-point segment whose crossings are counted.
type CountingLine struct {
	Direction Direction        `json:"direction"`
	Points    []geometry.Point `json:"points"`
}

// Complete reports whether both endpoints have been placed.
func (l CountingLine) Complete() bool {
	return len(l.Points) == LinePoints
}

func (l CountingLine) clone() CountingLine {
	points := slices.Clone(l.Points)
	if points == nil {
		points = []geometry.Point{}
	}
	return CountingLine{Direction: l.Direction, Points: points}
}

// ErrInvalidPayload is returned by Validate.
var ErrInvalidPayload = errors.New("invalid calibration payload")

// Payload is the calibration handed to the detection backend.
type Payload struct {
	RegionPoints  [RegionPoints]geometry.Point `json:"regionPoints"`
	CountingLines [2]CountingLine              `json:"countingLines"`
}

// UnmarshalJSON requires exactly four region points and two counting lines;
// the fixed arrays would otherwise zero-fill short input and drop extras.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw struct {
		RegionPoints  []geometry.Point `json:"regionPoints"`
		CountingLines []CountingLine   `json:"countingLines"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.RegionPoints) != RegionPoints {
		return fmt.Errorf("%w: expected %d region points, got %d", ErrInvalidPayload, RegionPoints, len(raw.RegionPoints))
	}
	if len(raw.CountingLines) != len(p.CountingLines) {
		return fmt.Errorf("%w: expected %d counting lines, got %d", ErrInvalidPayload, len(p.CountingLines), len(raw.CountingLines))
	}

	var out Payload
	copy(out.RegionPoints[:], raw.RegionPoints)
	copy(out.CountingLines[:], raw.CountingLines)
	*p = out
	return nil
}

// Validate checks a payload received from outside the interactive workflow.
func (p Payload) Validate() error {
	for i, pt := range p.RegionPoints {
		if !pt.InBounds() {
			return fmt.Errorf("%w: region point %d out of bounds: %+v", ErrInvalidPayload, i, pt)
		}
	}

	want := [2]Direction{Incoming, Outgoing}
	for i, line := range p.CountingLines {
		if line.Direction != want[i] {
			return fmt.Errorf("%w: counting line %d: expected %s, got %s", ErrInvalidPayload, i, want[i], line.Direction)
		}
		if !line.Complete() {
			return fmt.Errorf("%w: counting line %s has %d points", ErrInvalidPayload, line.Direction, len(line.Points))
		}
		for _, pt := range line.Points {
			if !pt.InBounds() {
				return fmt.Errorf("%w: counting line %s point out of bounds: %+v", ErrInvalidPayload, line.Direction, pt)
			}
		}
		if line.Points[0] == line.Points[1] {
			return fmt.Errorf("%w: counting line %s has identical endpoints", ErrInvalidPayload, line.Direction)
		}
	}
	return nil
}

// Session rebuilds the finished session that produced p.
func (p Payload) Session() Session {
	points := make([]geometry.Point, 0, RegionPoints+2*LinePoints)
	points = append(points, p.RegionPoints[:]...)
	for _, line := range p.CountingLines {
		points = append(points, line.Points...)
	}
	return Replay(points)
}
