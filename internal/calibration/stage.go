package calibration

import (
	"encoding/json"
	"fmt"
)

// Stage is one step of the calibration workflow.
type Stage int

const (
	StageCollectingRegion Stage = iota
	StageCollectingIncomingLine
	StageCollectingOutgoingLine
	StageDone
)

var stageNames = map[Stage]string{
	StageCollectingRegion:       "ROI",
	StageCollectingIncomingLine: "LINE1",
	StageCollectingOutgoingLine: "LINE2",
	StageDone:                   "DONE",
}

// String returns the short mode name shown by the setup screen.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for stage, n := range stageNames {
		if n == name {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown calibration stage %q", name)
}

// Step describes a stage for the progress strip of the setup screen.
type Step struct {
	Stage       Stage  `json:"stage"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

var steps = []Step{
	{StageCollectingRegion, "Region of interest", "Click 4 points to outline the detection area", "blue"},
	{StageCollectingIncomingLine, "Counting line - incoming", "Click 2 points for the entry line", "orange"},
	{StageCollectingOutgoingLine, "Counting line - outgoing", "Click 2 points for the exit line", "yellow"},
	{StageDone, "Setup complete", "All settings are ready to save", "green"},
}

// Steps returns the ordered workflow steps.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}
