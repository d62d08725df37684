package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"smartgarage/internal/calibration"
	"smartgarage/internal/geometry"
	"smartgarage/internal/logger"
	"smartgarage/internal/metrics"
	"smartgarage/internal/repository/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeBackend struct {
	err      error
	received []calibration.Payload
}

func (b *fakeBackend) Configure(_ context.Context, p calibration.Payload) error {
	b.received = append(b.received, p)
	return b.err
}

// 800x450 video element at (100, 50) on the page.
var videoRect = geometry.Rect{Left: 100, Top: 50, Width: 800, Height: 450}

func clickAll(t *testing.T, s *CalibrationService, pixels [][2]float64) {
	t.Helper()

	for _, p := range pixels {
		if _, err := s.Click(p[0], p[1], videoRect); err != nil {
			t.Fatalf("Click(%v) failed: %v", p, err)
		}
	}
}

var fullCalibration = [][2]float64{
	{180, 95}, {820, 95}, {820, 455}, {180, 455}, // region
	{260, 230}, {740, 230}, // incoming
	{260, 320}, {740, 320}, // outgoing
}

func TestCalibrationService_ClickNormalizes(t *testing.T) {
	s := NewCalibrationService(sqlite.NewCalibrationRepository(newTestDB(t)), nil, metrics.New(), logger.NewDiscard())

	session, err := s.Click(500, 275, videoRect)
	if err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if len(session.Region) != 1 || session.Region[0] != (geometry.Point{X: 50, Y: 50}) {
		t.Errorf("expected centre point, got %+v", session.Region)
	}
}

func TestCalibrationService_ZeroSizedContainerIsRejected(t *testing.T) {
	m := metrics.New()
	s := NewCalibrationService(sqlite.NewCalibrationRepository(newTestDB(t)), nil, m, logger.NewDiscard())

	session, err := s.Click(10, 10, geometry.Rect{Width: 0, Height: 450})
	if !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
	if session.Stage() != calibration.StageCollectingRegion || len(session.Region) != 0 {
		t.Error("rejected click must leave the session unchanged")
	}
	if m.CalibrationRejected.Load() != 1 {
		t.Error("rejected click should be counted")
	}
}

func TestCalibrationService_OutOfFrameClickIsRejected(t *testing.T) {
	m := metrics.New()
	s := NewCalibrationService(sqlite.NewCalibrationRepository(newTestDB(t)), nil, m, logger.NewDiscard())
	clickAll(t, s, fullCalibration[:2])

	// left of the video element, then below it
	for _, p := range [][2]float64{{60, 200}, {400, 520}} {
		session, err := s.Click(p[0], p[1], videoRect)
		if !errors.Is(err, ErrOutOfFrame) {
			t.Fatalf("Click(%v): expected ErrOutOfFrame, got %v", p, err)
		}
		if len(session.Region) != 2 {
			t.Errorf("misclick must not be recorded, region %+v", session.Region)
		}
	}
	if m.CalibrationRejected.Load() != 2 {
		t.Errorf("expected 2 rejected clicks, got %d", m.CalibrationRejected.Load())
	}

	clickAll(t, s, fullCalibration[2:])
	if _, err := s.Save(context.Background()); err != nil {
		t.Errorf("calibration should still be savable after misclicks: %v", err)
	}
}

func TestCalibrationService_Restore(t *testing.T) {
	s := NewCalibrationService(sqlite.NewCalibrationRepository(newTestDB(t)), nil, nil, logger.NewDiscard())
	clickAll(t, s, fullCalibration)
	payload, err := calibration.ToPayload(s.State())
	if err != nil {
		t.Fatalf("ToPayload failed: %v", err)
	}
	s.Reset()

	s.Restore(payload)
	if s.State().Stage() != calibration.StageDone {
		t.Fatalf("expected DONE after restore, got %s", s.State().Stage())
	}
	restored, _ := calibration.ToPayload(s.State())
	if restored.RegionPoints != payload.RegionPoints {
		t.Errorf("restored region %+v, want %+v", restored.RegionPoints, payload.RegionPoints)
	}
}

func TestCalibrationService_SaveRequiresDone(t *testing.T) {
	s := NewCalibrationService(sqlite.NewCalibrationRepository(newTestDB(t)), nil, nil, logger.NewDiscard())
	clickAll(t, s, fullCalibration[:5])

	if _, err := s.Save(context.Background()); !errors.Is(err, calibration.ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestCalibrationService_SaveStoresAndApplies(t *testing.T) {
	repo := sqlite.NewCalibrationRepository(newTestDB(t))
	be := &fakeBackend{}
	s := NewCalibrationService(repo, be, metrics.New(), logger.NewDiscard())

	var applied []calibration.Payload
	s.OnApplied(func(p calibration.Payload) { applied = append(applied, p) })

	clickAll(t, s, fullCalibration)
	if s.State().Stage() != calibration.StageDone {
		t.Fatalf("expected DONE, got %s", s.State().Stage())
	}

	record, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !record.Applied || record.Source != "dashboard" {
		t.Errorf("unexpected record %+v", record)
	}
	if len(be.received) != 1 || len(applied) != 1 {
		t.Fatalf("expected payload handed to backend and hook, got %d/%d", len(be.received), len(applied))
	}
	if be.received[0].CountingLines[1].Direction != calibration.Outgoing {
		t.Errorf("second line should be outgoing: %+v", be.received[0].CountingLines)
	}

	latest, err := s.Latest()
	if err != nil || latest == nil || latest.ID != record.ID || !latest.Applied {
		t.Errorf("expected latest to be the applied record, got %+v (%v)", latest, err)
	}

	if s.State().Stage() != calibration.StageDone {
		t.Error("saving should not reset the session")
	}
}

func TestCalibrationService_BackendFailureStillStores(t *testing.T) {
	repo := sqlite.NewCalibrationRepository(newTestDB(t))
	s := NewCalibrationService(repo, &fakeBackend{err: errors.New("connection refused")}, metrics.New(), logger.NewDiscard())
	clickAll(t, s, fullCalibration)

	record, err := s.Save(context.Background())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if record == nil || record.Applied {
		t.Errorf("expected unapplied record, got %+v", record)
	}
	latest, _ := repo.Latest()
	if latest == nil {
		t.Error("calibration should be stored even when the backend fails")
	}
}

func TestCalibrationService_StoreValidates(t *testing.T) {
	s := NewCalibrationService(sqlite.NewCalibrationRepository(newTestDB(t)), nil, nil, logger.NewDiscard())

	_, err := s.Store(context.Background(), calibration.Payload{}, "import")
	if err == nil {
		t.Error("empty payload should fail validation")
	}
}

func TestCalibrationService_Reset(t *testing.T) {
	s := NewCalibrationService(sqlite.NewCalibrationRepository(newTestDB(t)), nil, nil, logger.NewDiscard())
	clickAll(t, s, fullCalibration[:6])

	session := s.Reset()
	if session.Stage() != calibration.StageCollectingRegion || len(session.Region) != 0 || len(session.Lines) != 0 {
		t.Errorf("expected fresh session, got %+v", session)
	}
}
