package camera

import (
	"context"
	"time"
)

// Frame is one JPEG-encoded image from a camera.
type Frame struct {
	Camera     string
	Data       []byte
	CapturedAt time.Time
}

// FrameSource produces frames until ctx is cancelled or the source fails.
// Implementations never block on a full channel; frames that cannot be
// delivered are dropped.
type FrameSource interface {
	Name() string
	Run(ctx context.Context, frames chan<- Frame) error
}

// Offer delivers frame without blocking and reports whether it was accepted.
func Offer(frames chan<- Frame, frame Frame) bool {
	select {
	case frames <- frame:
		return true
	default:
		return false
	}
}
