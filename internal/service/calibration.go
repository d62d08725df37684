package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"smartgarage/internal/calibration"
	"smartgarage/internal/geometry"
	"smartgarage/internal/logger"
	"smartgarage/internal/metrics"
	"smartgarage/internal/model"
	"smartgarage/internal/repository"
)

// ErrOutOfFrame is returned for a click that lands outside the video frame.
var ErrOutOfFrame = errors.New("click outside the video frame")

// ErrBackendUnavailable wraps failures to hand a saved calibration to the detection backend.
var ErrBackendUnavailable = errors.New("calibration saved but not applied")

// Configurer applies a calibration to the detection backend.
type Configurer interface {
	Configure(ctx context.Context, payload calibration.Payload) error
}

// CalibrationService holds the operator's calibration session. The session
// value is replaced, never mutated, on every click.
type CalibrationService struct {
	mu      sync.Mutex
	session calibration.Session

	calibrationRepo repository.CalibrationRepository
	backend         Configurer
	metrics         *metrics.Metrics
	logger          *logger.Logger

	onApplied []func(calibration.Payload)
}

func NewCalibrationService(calibrationRepo repository.CalibrationRepository, backend Configurer, metrics *metrics.Metrics, logger *logger.Logger) *CalibrationService {
	return &CalibrationService{
		session:         calibration.NewSession(),
		calibrationRepo: calibrationRepo,
		backend:         backend,
		metrics:         metrics,
		logger:          logger,
	}
}

// OnApplied registers a callback run after a payload is saved.
func (s *CalibrationService) OnApplied(fn func(calibration.Payload)) {
	s.onApplied = append(s.onApplied, fn)
}

// Click normalizes a pointer event against rect and feeds it to the session.
// A click on a container without area, or outside the frame, leaves the
// session unchanged.
func (s *CalibrationService) Click(pointerX, pointerY float64, rect geometry.Rect) (calibration.Session, error) {
	p, err := geometry.Normalize(pointerX, pointerY, rect)
	if err == nil && !p.InBounds() {
		err = fmt.Errorf("%w: (%g, %g)", ErrOutOfFrame, p.X, p.Y)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.CalibrationRejected.Add(1)
		}
		return s.State(), err
	}

	s.mu.Lock()
	before := s.session.Stage()
	s.session = calibration.AddPoint(s.session, p)
	after := s.session
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.CalibrationClicks.Add(1)
	}
	if after.Stage() != before {
		s.logger.Info("Calibration advanced to %s", after.Stage())
	}
	return after, nil
}

// Reset discards every collected point.
func (s *CalibrationService) Reset() calibration.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = calibration.Reset(s.session)
	s.logger.Info("Calibration reset")
	return s.session
}

// Restore replaces the session with the finished one that produced p, so the
// setup screen shows the calibration currently in use.
func (s *CalibrationService) Restore(p calibration.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = p.Session()
}

// State returns the current session.
func (s *CalibrationService) State() calibration.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Save stores the finished calibration and pushes it to the backend. When
// the backend fails the record is still returned together with an error
// wrapping ErrBackendUnavailable.
func (s *CalibrationService) Save(ctx context.Context) (*model.Calibration, error) {
	payload, err := calibration.ToPayload(s.State())
	if err != nil {
		return nil, err
	}
	return s.Store(ctx, payload, "dashboard")
}

// Store saves an externally produced payload after validating it.
func (s *CalibrationService) Store(ctx context.Context, payload calibration.Payload, source string) (*model.Calibration, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calibration: %w", err)
	}

	record := &model.Calibration{Payload: payload, Source: source}
	if _, err := s.calibrationRepo.Insert(record); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.CalibrationsSaved.Add(1)
	}
	s.logger.Info("Calibration %d saved from %s", record.ID, source)

	for _, fn := range s.onApplied {
		fn(payload)
	}

	if s.backend == nil {
		return record, nil
	}
	if err := s.backend.Configure(ctx, payload); err != nil {
		if s.metrics != nil {
			s.metrics.BackendErrors.Add(1)
		}
		s.logger.Error("Failed to apply calibration %d: %v", record.ID, err)
		return record, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if err := s.calibrationRepo.MarkApplied(record.ID); err != nil {
		s.logger.Warning("Calibration %d applied but not marked: %v", record.ID, err)
	} else {
		record.Applied = true
	}
	return record, nil
}

// Latest returns the most recently saved calibration, or nil.
func (s *CalibrationService) Latest() (*model.Calibration, error) {
	return s.calibrationRepo.Latest()
}
