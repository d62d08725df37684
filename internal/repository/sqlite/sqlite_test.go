package sqlite

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"smartgarage/internal/calibration"
	"smartgarage/internal/dto"
	"smartgarage/internal/geometry"
	"smartgarage/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPayload(t *testing.T) calibration.Payload {
	t.Helper()

	s := calibration.Replay([]geometry.Point{
		{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 90, Y: 90}, {X: 10, Y: 90},
		{X: 20, Y: 50}, {X: 80, Y: 50},
		{X: 20, Y: 70}, {X: 80, Y: 70},
	})
	p, err := calibration.ToPayload(s)
	if err != nil {
		t.Fatalf("ToPayload failed: %v", err)
	}
	return p
}

func TestDatabase_Connection(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDatabase_MigrationIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}

	v, err := db.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("expected schema version %d, got %d", len(migrations), v)
	}
}

func TestCalibrationRepository_InsertAndLatest(t *testing.T) {
	repo := NewCalibrationRepository(newTestDB(t))

	latest, err := repo.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected no calibration, got %+v", latest)
	}

	payload := testPayload(t)
	first := &model.Calibration{Payload: payload}
	if _, err := repo.Insert(first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if first.Source != "dashboard" {
		t.Errorf("expected default source, got %q", first.Source)
	}

	payload.RegionPoints[0] = geometry.Point{X: 5, Y: 5}
	second := &model.Calibration{Payload: payload, Source: "import"}
	id, err := repo.Insert(second)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	latest, err = repo.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != id || latest.Source != "import" {
		t.Errorf("unexpected latest calibration %+v", latest)
	}
	if !reflect.DeepEqual(latest.Payload, payload) {
		t.Errorf("payload did not round trip:\n got %+v\nwant %+v", latest.Payload, payload)
	}
	if latest.Applied {
		t.Error("new calibration should not be applied")
	}
}

func TestCalibrationRepository_MarkAppliedAndList(t *testing.T) {
	repo := NewCalibrationRepository(newTestDB(t))

	for i := 0; i < 3; i++ {
		if _, err := repo.Insert(&model.Calibration{Payload: testPayload(t)}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	if err := repo.MarkApplied(2); err != nil {
		t.Fatalf("MarkApplied failed: %v", err)
	}
	got, err := repo.GetByID(2)
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Applied {
		t.Error("calibration 2 should be applied")
	}

	missing, err := repo.GetByID(99)
	if err != nil || missing != nil {
		t.Errorf("expected nil for missing id, got %+v, %v", missing, err)
	}

	all, err := repo.GetAll(2)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != 3 || all[1].ID != 2 {
		t.Errorf("expected newest two calibrations, got %+v", all)
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	all, _ = repo.GetAll(0)
	if len(all) != 0 {
		t.Errorf("expected empty table, got %d rows", len(all))
	}
}

func TestTelemetryRepository_BatchAndQuery(t *testing.T) {
	repo := NewTelemetryRepository(newTestDB(t))

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var batch []model.TelemetrySnapshot
	for i := 0; i < 5; i++ {
		batch = append(batch, model.TelemetrySnapshot{
			Stats: dto.LiveStats{
				TotalVehicles:    10 * (i + 1),
				IncomingVehicles: 6 * (i + 1),
				ProcessingTimeMs: 40,
				VehicleTypes:     map[string]int{"suv": i},
			},
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	if err := repo.InsertBatch(batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	count, err := repo.Count()
	if err != nil || count != 5 {
		t.Fatalf("expected 5 snapshots, got %d (%v)", count, err)
	}

	latest, err := repo.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Stats.TotalVehicles != 50 || latest.Stats.VehicleTypes["suv"] != 4 {
		t.Errorf("unexpected latest snapshot %+v", latest.Stats)
	}

	recent, err := repo.GetAll(&dto.TelemetryFilter{Limit: 3})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(recent))
	}
	if recent[0].Stats.TotalVehicles != 30 || recent[2].Stats.TotalVehicles != 50 {
		t.Errorf("expected the three newest in chronological order, got %d..%d",
			recent[0].Stats.TotalVehicles, recent[2].Stats.TotalVehicles)
	}

	window, err := repo.GetAll(&dto.TelemetryFilter{Since: base.Add(time.Minute), Until: base.Add(2 * time.Minute)})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(window) != 2 {
		t.Errorf("expected 2 snapshots in window, got %d", len(window))
	}

	deleted, err := repo.DeleteBefore(base.Add(3 * time.Minute))
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}
}

func TestTelemetryRepository_EmptyBatchAndTable(t *testing.T) {
	repo := NewTelemetryRepository(newTestDB(t))

	if err := repo.InsertBatch(nil); err != nil {
		t.Errorf("empty batch should be a no-op: %v", err)
	}
	latest, err := repo.Latest()
	if err != nil || latest != nil {
		t.Errorf("expected nil latest on empty table, got %+v, %v", latest, err)
	}
}
