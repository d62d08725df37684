package storage

import (
	"context"
	"sync"
	"time"

	"smartgarage/internal/config"
	"smartgarage/internal/dto"
	"smartgarage/internal/logger"
	"smartgarage/internal/metrics"
	"smartgarage/internal/model"
	"smartgarage/internal/repository"
)

const (
	// DefaultBufferLimit caps how many snapshots are held in memory before a flush.
	DefaultBufferLimit = 60
	// DefaultFlushInterval defines how often (seconds) buffered snapshots are flushed.
	DefaultFlushInterval = 30
)

// BufferService buffers live statistics in memory and periodically flushes
// them to the telemetry repository.
type BufferService struct {
	snapshots     []model.TelemetrySnapshot
	limit         int
	flushInterval time.Duration
	mu            sync.Mutex
	logger        *logger.Logger
	metrics       *metrics.Metrics
	telemetryRepo repository.TelemetryRepository
}

// NewBufferService creates a new BufferService writing to telemetryRepo.
func NewBufferService(config *config.Config, logger *logger.Logger, metrics *metrics.Metrics, telemetryRepo repository.TelemetryRepository) *BufferService {
	limit := config.TelemetryBufferLimit
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	interval := config.TelemetryFlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	return &BufferService{
		snapshots:     make([]model.TelemetrySnapshot, 0, limit),
		limit:         limit,
		flushInterval: time.Duration(interval) * time.Second,
		logger:        logger,
		metrics:       metrics,
		telemetryRepo: telemetryRepo,
	}
}

// Run starts a ticker loop that periodically flushes snapshots. A final
// flush happens when ctx is cancelled.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Add appends a snapshot to the buffer. A full buffer is flushed right away.
func (s *BufferService) Add(stats dto.LiveStats) {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, model.TelemetrySnapshot{Stats: stats, ReceivedAt: time.Now()})
	full := len(s.snapshots) >= s.limit
	s.mu.Unlock()

	if full {
		s.logger.Debug("Telemetry buffer full (%d), flushing", s.limit)
		s.Flush()
	}
}

// Pending returns the number of buffered snapshots.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// Flush writes buffered snapshots and clears the buffer. On failure the
// snapshots stay buffered, bounded by the limit.
func (s *BufferService) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) == 0 || s.telemetryRepo == nil {
		return
	}

	if err := s.telemetryRepo.InsertBatch(s.snapshots); err != nil {
		s.logger.Error("Error saving telemetry to database: %v", err)
		if over := len(s.snapshots) - s.limit; over > 0 {
			s.snapshots = append(s.snapshots[:0], s.snapshots[over:]...)
		}
		return
	}

	if s.metrics != nil {
		s.metrics.SnapshotsFlushed.Add(uint64(len(s.snapshots)))
	}
	s.logger.Info("Flushed %d telemetry snapshots", len(s.snapshots))
	s.snapshots = s.snapshots[:0]
}
