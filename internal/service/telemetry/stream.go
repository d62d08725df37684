package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"smartgarage/internal/dto"
	"smartgarage/internal/logger"
	"smartgarage/internal/metrics"

	"github.com/gorilla/websocket"
)

// Publisher receives encoded viewer messages.
type Publisher interface {
	Broadcast(message []byte) bool
}

// Recorder keeps received statistics for history.
type Recorder interface {
	Add(stats dto.LiveStats)
}

// StatsMessage wraps live statistics for dashboard viewers.
type StatsMessage struct {
	Type string        `json:"type"`
	Data dto.LiveStats `json:"data"`
}

// Stream is a client of the detection backend's live statistics socket.
type Stream struct {
	url    string
	retry  time.Duration
	dialer *websocket.Dialer

	publisher Publisher
	recorder  Recorder
	metrics   *metrics.Metrics
	logger    *logger.Logger

	mu        sync.RWMutex
	latest    dto.LiveStats
	hasLatest bool
	connected atomic.Bool
}

func NewStream(url string, retry time.Duration, publisher Publisher, recorder Recorder, metrics *metrics.Metrics, logger *logger.Logger) *Stream {
	if retry <= 0 {
		retry = 5 * time.Second
	}
	return &Stream{
		url:       url,
		retry:     retry,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		publisher: publisher,
		recorder:  recorder,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run keeps a connection open, reconnecting after the retry delay, until ctx is cancelled.
func (s *Stream) Run(ctx context.Context) {
	for {
		err := s.session(ctx)
		s.setConnected(false)
		if ctx.Err() != nil {
			return
		}
		s.logger.Warning("Telemetry stream %s: %v; reconnecting in %v", s.url, err, s.retry)
		if s.metrics != nil {
			s.metrics.TelemetryReconnects.Add(1)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.retry):
		}
	}
}

func (s *Stream) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	s.setConnected(true)
	s.logger.Info("Connected to telemetry stream %s", s.url)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("closed by backend")
			}
			return err
		}
		s.handle(data)
	}
}

func (s *Stream) handle(data []byte) {
	var stats dto.LiveStats
	if err := json.Unmarshal(data, &stats); err != nil {
		s.logger.Warning("Skipping malformed telemetry message: %v", err)
		if s.metrics != nil {
			s.metrics.TelemetryMalformed.Add(1)
		}
		return
	}
	if s.metrics != nil {
		s.metrics.TelemetryMessages.Add(1)
	}

	s.mu.Lock()
	s.latest = stats
	s.hasLatest = true
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.Add(stats)
	}
	if s.publisher != nil {
		msg, err := json.Marshal(StatsMessage{Type: "stats", Data: stats})
		if err != nil {
			s.logger.Error("Failed to encode stats message: %v", err)
			return
		}
		s.publisher.Broadcast(msg)
	}
}

func (s *Stream) setConnected(v bool) {
	s.connected.Store(v)
	if s.metrics != nil {
		s.metrics.SetConnected(v)
	}
}

// Connected reports whether the stream currently has an open connection.
func (s *Stream) Connected() bool {
	return s.connected.Load()
}

// Latest returns the most recent statistics and whether any have arrived.
func (s *Stream) Latest() (dto.LiveStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasLatest
}

// Accuracy returns the last reported detection accuracy, 0 before any message.
func (s *Stream) Accuracy() float64 {
	stats, _ := s.Latest()
	return stats.DetectionAccuracy
}
