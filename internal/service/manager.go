package service

import (
	"context"
	"sync"

	"smartgarage/internal/calibration"
	"smartgarage/internal/config"
	"smartgarage/internal/logger"
	"smartgarage/internal/metrics"
	"smartgarage/internal/repository"
	"smartgarage/internal/service/backend"
	"smartgarage/internal/service/camera"
	"smartgarage/internal/service/detection"
	"smartgarage/internal/service/storage"
	"smartgarage/internal/service/telemetry"
	"smartgarage/internal/service/websocket"
)

// Manager owns the long-running services and the wiring between them.
type Manager struct {
	calibrationService *CalibrationService
	dashboardService   *DashboardService
	bufferService      *storage.BufferService
	websocketService   *websocket.HubService
	telemetryStream    *telemetry.Stream
	backendClient      *backend.Client
	detectionLoop      *detection.Loop
	telemetryRepo      repository.TelemetryRepository
	metrics            *metrics.Metrics
	logger             *logger.Logger

	ctx context.Context
	wg  sync.WaitGroup
}

// NewManager wires the services. source may be nil when no camera is configured.
func NewManager(config *config.Config, logger *logger.Logger, m *metrics.Metrics,
	calibrationRepo repository.CalibrationRepository, telemetryRepo repository.TelemetryRepository,
	source camera.FrameSource, annotator detection.Annotator) *Manager {

	hub := NewHub(logger, m)
	buffer := storage.NewBufferService(config, logger, m, telemetryRepo)
	client := backend.NewClient(config)

	manager := &Manager{
		calibrationService: NewCalibrationService(calibrationRepo, client, m, logger),
		dashboardService:   NewDashboardService(telemetryRepo, m, logger),
		bufferService:      buffer,
		websocketService:   hub,
		telemetryStream:    telemetry.NewStream(config.BackendWebsocketURL, config.TelemetryRetry, hub, buffer, m, logger),
		backendClient:      client,
		telemetryRepo:      telemetryRepo,
		metrics:            m,
		logger:             logger,
	}
	m.RegisterAccuracy(manager.telemetryStream.Accuracy)

	latest, err := calibrationRepo.Latest()
	if err != nil {
		logger.Warning("Could not load the last calibration: %v", err)
	} else if latest != nil {
		manager.calibrationService.Restore(latest.Payload)
		logger.Info("Restored calibration %d", latest.ID)
	}

	if source != nil {
		manager.detectionLoop = detection.NewLoop(source, detection.NewPlaceholderDetector(), hub, m, logger)
		if annotator != nil {
			manager.detectionLoop.SetAnnotator(annotator)
		}
		manager.calibrationService.OnApplied(func(p calibration.Payload) {
			manager.detectionLoop.SetOverlay(&p)
		})
		if latest != nil {
			manager.detectionLoop.SetOverlay(&latest.Payload)
		}
	}

	return manager
}

// NewHub creates the viewer hub and keeps the viewer gauge current.
func NewHub(logger *logger.Logger, m *metrics.Metrics) *websocket.HubService {
	hub := websocket.NewHubService(logger)
	if m != nil {
		hub.OnClientCount(func(n int) { m.ActiveViewers.Store(uint64(n)) })
	}
	return hub
}

// Start launches the hub, the snapshot buffer and the telemetry stream.
func (m *Manager) Start(ctx context.Context) {
	m.ctx = ctx
	for _, run := range []func(context.Context){
		m.websocketService.Run,
		m.bufferService.Run,
		m.telemetryStream.Run,
	} {
		m.wg.Add(1)
		go func(run func(context.Context)) {
			defer m.wg.Done()
			run(ctx)
		}(run)
	}
	m.logger.Info("🎬 Manager started")
}

// Stop halts the detection loop and waits for the background services; the
// context passed to Start must already be cancelled.
func (m *Manager) Stop() {
	if m.detectionLoop != nil {
		m.detectionLoop.Stop()
	}
	m.wg.Wait()
	m.logger.Info("🛑 All services stopped")
}

// StartProcessing asks the backend to start counting with the latest saved
// calibration and starts the local detection loop.
func (m *Manager) StartProcessing(ctx context.Context) error {
	var payload *calibration.Payload
	if latest, err := m.calibrationService.Latest(); err != nil {
		return err
	} else if latest != nil {
		payload = &latest.Payload
	}

	if err := m.backendClient.Start(ctx, payload); err != nil {
		m.metrics.BackendErrors.Add(1)
		return err
	}
	if m.detectionLoop != nil {
		loopCtx := m.ctx
		if loopCtx == nil {
			loopCtx = context.Background()
		}
		if err := m.detectionLoop.Start(loopCtx); err != nil && err != detection.ErrRunning {
			return err
		}
	}
	return nil
}

// StopProcessing stops the local loop and the backend.
func (m *Manager) StopProcessing(ctx context.Context) error {
	if m.detectionLoop != nil {
		m.detectionLoop.Stop()
	}
	if err := m.backendClient.Stop(ctx); err != nil {
		m.metrics.BackendErrors.Add(1)
		return err
	}
	return nil
}

// LiveSnapshot reports the latest statistics, falling back to stored history.
func (m *Manager) LiveSnapshot() Snapshot {
	snap := Snapshot{Connected: m.telemetryStream.Connected()}
	if stats, ok := m.telemetryStream.Latest(); ok {
		snap.Stats = &stats
	} else if stored := fromHistory(m.telemetryRepo); stored != nil {
		snap.Stats = &stored.Stats
	}
	if m.detectionLoop != nil {
		snap.FPS = m.detectionLoop.FPS()
		snap.Running = m.detectionLoop.Running()
	}
	return snap
}

func (m *Manager) GetCalibrationService() *CalibrationService {
	return m.calibrationService
}

func (m *Manager) GetDashboardService() *DashboardService {
	return m.dashboardService
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) GetMetrics() *metrics.Metrics {
	return m.metrics
}
