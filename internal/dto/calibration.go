package dto

import (
	"smartgarage/internal/calibration"
	"smartgarage/internal/geometry"
)

// ClickRequest is a pointer event on the calibration video, in the same
// coordinate space as Rect.
type ClickRequest struct {
	X    float64       `json:"x"`
	Y    float64       `json:"y"`
	Rect geometry.Rect `json:"rect"`
}

// CalibrationState is what the setup screen needs to redraw itself.
type CalibrationState struct {
	Stage    calibration.Stage   `json:"stage"`
	Progress float64             `json:"progress"`
	Step     calibration.Step    `json:"step"`
	StepNum  int                 `json:"stepNumber"`
	Steps    []calibration.Step  `json:"steps"`
	Summary  calibration.Summary `json:"summary"`
	Savable  bool                `json:"savable"`
	CanReset bool                `json:"canReset"`
	Session  calibration.Session `json:"session"`
}

// NewCalibrationState derives the screen state from a session.
func NewCalibrationState(s calibration.Session) CalibrationState {
	return CalibrationState{
		Stage:    s.Stage(),
		Progress: calibration.Progress(s),
		Step:     calibration.CurrentStep(s),
		StepNum:  calibration.StepNumber(s),
		Steps:    calibration.Steps(),
		Summary:  calibration.Summarize(s),
		Savable:  calibration.IsSavable(s),
		CanReset: calibration.CanReset(s),
		Session:  s,
	}
}
