package model

import (
	"time"

	"smartgarage/internal/dto"
)

// TelemetrySnapshot is one stored live statistics message.
type TelemetrySnapshot struct {
	ID         int64         `json:"id"`
	Stats      dto.LiveStats `json:"stats"`
	ReceivedAt time.Time     `json:"receivedAt"`
}
