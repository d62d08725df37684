package detection

import "time"

// FPSMeter counts frames in a rolling one-second window.
type FPSMeter struct {
	last  time.Time
	count int
	fps   int
}

func NewFPSMeter(start time.Time) *FPSMeter {
	return &FPSMeter{last: start}
}

// Tick is called once per loop iteration before a frame is processed. When at
// least a second has elapsed since the last report it stores the frame count,
// resets it and returns true. processed says whether this iteration handled a frame.
func (m *FPSMeter) Tick(now time.Time, processed bool) (int, bool) {
	reported := false
	if now.Sub(m.last) >= time.Second {
		m.fps = m.count
		m.count = 0
		m.last = now
		reported = true
	}
	if processed {
		m.count++
	}
	return m.fps, reported
}

// FPS returns the last reported rate.
func (m *FPSMeter) FPS() int {
	return m.fps
}
