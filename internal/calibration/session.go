// Package calibration implements the click-driven setup of the detection
// region and the two directional counting lines.
//
// A Session is a value. Every operation takes a session and returns a new one;
// the input is never modified, so sessions can be kept as snapshots or replayed.
// The current stage is always derived from how many points have been collected.
package calibration

import (
	"encoding/json"
	"errors"
	"slices"

	"smartgarage/internal/geometry"
)

const (
	// RegionPoints is the number of clicks that close the region polygon.
	RegionPoints = 4
	// LinePoints is the number of clicks that complete a counting line.
	LinePoints = 2
)

// ErrNotReady is returned when a payload is requested before the workflow is done.
var ErrNotReady = errors.New("calibration is not complete")

// Session accumulates the clicks of one calibration run.
type Session struct {
	Region []geometry.Point
	Lines  []CountingLine
}

// NewSession returns an empty session collecting the region.
func NewSession() Session {
	return Session{Region: []geometry.Point{}}
}

// Stage derives the current stage from the collected points.
func (s Session) Stage() Stage {
	switch {
	case len(s.Region) < RegionPoints:
		return StageCollectingRegion
	case len(s.Lines) < 1 || len(s.Lines[0].Points) < LinePoints:
		return StageCollectingIncomingLine
	case len(s.Lines) < 2 || len(s.Lines[1].Points) < LinePoints:
		return StageCollectingOutgoingLine
	default:
		return StageDone
	}
}

// AddPoint applies one click to the session. Clicks that do not fit the
// current stage, and every click once the session is done, are ignored.
func AddPoint(s Session, p geometry.Point) Session {
	next := s.clone()

	switch s.Stage() {
	case StageCollectingRegion:
		next.Region = append(next.Region, p)
		if len(next.Region) == RegionPoints {
			next.Lines = []CountingLine{{Direction: Incoming, Points: []geometry.Point{}}}
		}

	case StageCollectingIncomingLine:
		if len(next.Lines) == 0 {
			next.Lines = []CountingLine{{Direction: Incoming, Points: []geometry.Point{}}}
		}
		next.Lines[0].Points = append(next.Lines[0].Points, p)
		if len(next.Lines[0].Points) == LinePoints {
			next.Lines = append(next.Lines[:1], CountingLine{Direction: Outgoing, Points: []geometry.Point{}})
		}

	case StageCollectingOutgoingLine:
		if len(next.Lines) < 2 {
			next.Lines = append(next.Lines[:1], CountingLine{Direction: Outgoing, Points: []geometry.Point{}})
		}
		next.Lines[1].Points = append(next.Lines[1].Points, p)

	case StageDone:
		return s
	}

	return next
}

// Reset discards every collected point.
func Reset(Session) Session {
	return NewSession()
}

// Replay folds AddPoint over a click log starting from an empty session.
func Replay(points []geometry.Point) Session {
	s := NewSession()
	for _, p := range points {
		s = AddPoint(s, p)
	}
	return s
}

// Progress reports how far the workflow is, from 0.25 to 1.
func Progress(s Session) float64 {
	return float64(StepNumber(s)) / float64(len(steps))
}

// StepNumber is the 1-based position of the current stage.
func StepNumber(s Session) int {
	return int(s.Stage()) + 1
}

// CurrentStep returns the step description for the current stage.
func CurrentStep(s Session) Step {
	return steps[s.Stage()]
}

// IsSavable reports whether the session can be handed to the detection backend.
func IsSavable(s Session) bool {
	return s.Stage() == StageDone
}

// CanReset is false for a session that has nothing to discard.
func CanReset(s Session) bool {
	return len(s.Region) > 0 || len(s.Lines) > 0
}

// Summary counts the points collected per shape.
type Summary struct {
	RegionPoints   int `json:"regionPoints"`
	IncomingPoints int `json:"incomingPoints"`
	OutgoingPoints int `json:"outgoingPoints"`
}

// Summarize returns the collected point counts.
func Summarize(s Session) Summary {
	sum := Summary{RegionPoints: len(s.Region)}
	if len(s.Lines) > 0 {
		sum.IncomingPoints = len(s.Lines[0].Points)
	}
	if len(s.Lines) > 1 {
		sum.OutgoingPoints = len(s.Lines[1].Points)
	}
	return sum
}

// ToPayload builds the artifact consumed by the detection backend.
func ToPayload(s Session) (Payload, error) {
	if !IsSavable(s) {
		return Payload{}, ErrNotReady
	}

	var p Payload
	copy(p.RegionPoints[:], s.Region)
	for i := range p.CountingLines {
		p.CountingLines[i] = s.Lines[i].clone()
	}
	return p, nil
}

func (s Session) clone() Session {
	out := Session{Region: slices.Clone(s.Region)}
	if out.Region == nil {
		out.Region = []geometry.Point{}
	}
	if s.Lines != nil {
		out.Lines = make([]CountingLine, len(s.Lines))
		for i, line := range s.Lines {
			out.Lines[i] = line.clone()
		}
	}
	return out
}

// MarshalJSON includes the derived stage so clients never compute it themselves.
func (s Session) MarshalJSON() ([]byte, error) {
	lines := s.Lines
	if lines == nil {
		lines = []CountingLine{}
	}
	region := s.Region
	if region == nil {
		region = []geometry.Point{}
	}
	return json.Marshal(struct {
		Stage  Stage            `json:"stage"`
		Region []geometry.Point `json:"region"`
		Lines  []CountingLine   `json:"lines"`
	}{s.Stage(), region, lines})
}
