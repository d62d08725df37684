package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"smartgarage/internal/config"
	"smartgarage/internal/logger"
	"smartgarage/internal/metrics"
	"smartgarage/internal/repository/sqlite"
	"smartgarage/internal/route"
	"smartgarage/internal/service"
	"smartgarage/internal/service/camera"
	"smartgarage/internal/service/camera/device"
	"smartgarage/internal/service/detection"
)

type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	manager *service.Manager
	server  *http.Server
	cameras io.Closer
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)
	m := metrics.New()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var (
		source    camera.FrameSource
		annotator detection.Annotator
		cameras   io.Closer
	)
	if cfg.CameraDevice != "" {
		source = device.NewSource(cfg.CameraDevice, cfg.CameraFPS, log)
		annotator = device.Overlay{}
	} else {
		udp, err := camera.NewUDPSource(fmt.Sprintf(":%d", cfg.CamerasPort), cfg.CameraNames, log)
		if err != nil {
			log.Warning("Camera listener disabled: %v", err)
		} else {
			source = udp
			cameras = udp
		}
	}

	mng := service.NewManager(cfg, log, m,
		sqlite.NewCalibrationRepository(db), sqlite.NewTelemetryRepository(db),
		source, annotator)

	return &App{
		config:  cfg,
		logger:  log,
		db:      db,
		manager: mng,
		cameras: cameras,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: route.SetupRoutes(mng, cfg, log),
		},
	}, nil
}

// Run serves until SIGINT/SIGTERM, then drains the background services.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.manager.Start(ctx)

	fmt.Printf("🚗 Smart Garage Dashboard\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🔑 Password: %s\n", a.config.Password)
	fmt.Printf("💾 Database: %s\n", a.config.DBPath)
	fmt.Printf("🛰️  Backend: %s (stats %s)\n", a.config.BackendURL, a.config.BackendWebsocketURL)
	if a.config.CameraDevice != "" {
		fmt.Printf("📷 Camera: %s\n", a.config.CameraDevice)
	} else {
		fmt.Printf("📷 Cameras: udp :%d\n", a.config.CamerasPort)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested")
	case serveErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warning("HTTP shutdown: %v", err)
	}

	a.manager.Stop()
	if a.cameras != nil {
		a.cameras.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Closing database: %v", err)
	}
	a.logger.Close()
	return serveErr
}
