package repository

import (
	"time"

	"smartgarage/internal/dto"
	"smartgarage/internal/model"
)

// CalibrationRepository defines the interface for saved calibration payloads.
type CalibrationRepository interface {
	// Create operations
	Insert(c *model.Calibration) (int64, error)
	MarkApplied(id int64) error

	// Read operations
	GetByID(id int64) (*model.Calibration, error)
	Latest() (*model.Calibration, error)
	GetAll(limit int) ([]model.Calibration, error)

	// Delete operations
	DeleteAll() error
}

// TelemetryRepository defines the interface for live statistics history.
type TelemetryRepository interface {
	// Create operations
	InsertBatch(snapshots []model.TelemetrySnapshot) error

	// Read operations
	Latest() (*model.TelemetrySnapshot, error)
	GetAll(filter *dto.TelemetryFilter) ([]model.TelemetrySnapshot, error)
	Count() (int, error)

	// Delete operations
	DeleteBefore(t time.Time) (int64, error)
}
