package model

import (
	"time"

	"smartgarage/internal/calibration"
)

// Calibration is a saved calibration payload.
type Calibration struct {
	ID        int64               `json:"id"`
	Payload   calibration.Payload `json:"payload"`
	Source    string              `json:"source"`
	Applied   bool                `json:"applied"`
	CreatedAt time.Time           `json:"createdAt"`
}
