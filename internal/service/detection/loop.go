package detection

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"smartgarage/internal/calibration"
	"smartgarage/internal/logger"
	"smartgarage/internal/metrics"
	"smartgarage/internal/service/camera"
)

// ErrRunning is returned by Start when the loop is already running.
var ErrRunning = errors.New("detection loop already running")

// Annotator draws the calibration overlay and detections onto a frame.
type Annotator interface {
	Annotate(frame []byte, vehicles []Vehicle, payload *calibration.Payload) ([]byte, error)
}

// Publisher receives encoded viewer messages.
type Publisher interface {
	Broadcast(message []byte) bool
}

// FrameMessage is what viewers receive for every processed frame.
type FrameMessage struct {
	Type     string    `json:"type"`
	Camera   string    `json:"camera"`
	Image    string    `json:"image"`
	Vehicles []Vehicle `json:"vehicles"`
	FPS      int       `json:"fps"`
}

// Loop pulls frames from a source, runs the detector and forwards the
// annotated result to viewers.
type Loop struct {
	source    camera.FrameSource
	detector  Detector
	annotator Annotator
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *logger.Logger

	overlay atomic.Pointer[calibration.Payload]
	fps     atomic.Int64
	clock   func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewLoop(source camera.FrameSource, detector Detector, publisher Publisher, metrics *metrics.Metrics, logger *logger.Logger) *Loop {
	return &Loop{
		source:    source,
		detector:  detector,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		clock:     time.Now,
	}
}

// SetAnnotator installs an overlay renderer; without one frames pass through untouched.
func (l *Loop) SetAnnotator(a Annotator) {
	l.annotator = a
}

// SetOverlay sets the calibration drawn on outgoing frames; nil clears it.
func (l *Loop) SetOverlay(p *calibration.Payload) {
	l.overlay.Store(p)
}

// Start launches the loop. It runs until Stop is called or ctx is cancelled.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.stopped = make(chan struct{})

	frames := make(chan camera.Frame, 1)
	go func() {
		if err := l.source.Run(ctx, frames); err != nil {
			l.logger.Error("Frame source %s failed: %v", l.source.Name(), err)
		}
	}()
	go l.run(ctx, frames, l.stopped)

	l.logger.Info("Detection loop started on %s", l.source.Name())
	return nil
}

// Stop cancels the loop and waits for the in-flight frame to finish. No frame
// is processed after Stop returns. Stopping an idle loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, stopped := l.cancel, l.stopped
	l.cancel = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	l.fps.Store(0)
	l.logger.Info("Detection loop stopped")
}

// Running reports whether the loop is started.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// FPS returns the frames processed during the last full second.
func (l *Loop) FPS() int {
	return int(l.fps.Load())
}

func (l *Loop) run(ctx context.Context, frames <-chan camera.Frame, stopped chan struct{}) {
	defer close(stopped)

	meter := NewFPSMeter(l.clock())
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			l.report(meter.Tick(l.clock(), false))

		case frame := <-frames:
			if ctx.Err() != nil {
				return
			}
			l.report(meter.Tick(l.clock(), true))
			l.process(frame)
		}
	}
}

func (l *Loop) report(fps int, reported bool) {
	if !reported {
		return
	}
	l.fps.Store(int64(fps))
	if l.metrics != nil {
		l.metrics.LoopFPS.Store(uint64(fps))
	}
}

func (l *Loop) process(frame camera.Frame) {
	start := l.clock()

	vehicles, err := l.detector.Detect(frame)
	if err != nil {
		l.logger.Error("Detection failed on %s: %v", frame.Camera, err)
		if l.metrics != nil {
			l.metrics.FramesDropped.Add(1)
		}
		return
	}

	image := frame.Data
	if l.annotator != nil {
		annotated, err := l.annotator.Annotate(frame.Data, vehicles, l.overlay.Load())
		if err != nil {
			l.logger.Warning("Failed to annotate frame from %s: %v", frame.Camera, err)
		} else {
			image = annotated
		}
	}

	if l.metrics != nil {
		l.metrics.FramesProcessed.Add(1)
		l.metrics.UpdateProcessLatency(l.clock().Sub(start))
	}

	if l.publisher == nil {
		return
	}
	msg, err := json.Marshal(FrameMessage{
		Type:     "frame",
		Camera:   frame.Camera,
		Image:    base64.StdEncoding.EncodeToString(image),
		Vehicles: vehicles,
		FPS:      l.FPS(),
	})
	if err != nil {
		l.logger.Error("Failed to encode frame message: %v", err)
		return
	}
	l.publisher.Broadcast(msg)
}
