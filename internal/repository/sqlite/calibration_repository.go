package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"smartgarage/internal/model"
)

// CalibrationRepository implements repository.CalibrationRepository for SQLite.
type CalibrationRepository struct {
	db *DB
}

// NewCalibrationRepository creates a new SQLite calibration repository.
func NewCalibrationRepository(db *DB) *CalibrationRepository {
	return &CalibrationRepository{db: db}
}

// Insert stores a calibration payload and returns its ID.
func (r *CalibrationRepository) Insert(c *model.Calibration) (int64, error) {
	payload, err := json.Marshal(c.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode calibration: %w", err)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Source == "" {
		c.Source = "dashboard"
	}

	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO calibrations (payload, source, applied, created_at)
		VALUES (?, ?, ?, ?)
	`, string(payload), c.Source, c.Applied, c.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert calibration: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

// MarkApplied records that the backend accepted a calibration.
func (r *CalibrationRepository) MarkApplied(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`UPDATE calibrations SET applied = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to mark calibration applied: %w", err)
	}
	return nil
}

// GetByID retrieves a calibration by its ID; nil when it does not exist.
func (r *CalibrationRepository) GetByID(id int64) (*model.Calibration, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, payload, source, applied, created_at
		FROM calibrations WHERE id = ?
	`, id)
	return scanCalibration(row)
}

// Latest returns the most recently saved calibration, or nil if none exists.
func (r *CalibrationRepository) Latest() (*model.Calibration, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, payload, source, applied, created_at
		FROM calibrations ORDER BY id DESC LIMIT 1
	`)
	return scanCalibration(row)
}

// GetAll lists calibrations newest first.
func (r *CalibrationRepository) GetAll(limit int) ([]model.Calibration, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT id, payload, source, applied, created_at FROM calibrations ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calibrations: %w", err)
	}
	defer rows.Close()

	var calibrations []model.Calibration
	for rows.Next() {
		c, err := scanCalibration(rows)
		if err != nil {
			return nil, err
		}
		calibrations = append(calibrations, *c)
	}

	return calibrations, rows.Err()
}

// DeleteAll removes every stored calibration.
func (r *CalibrationRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM calibrations`); err != nil {
		return fmt.Errorf("failed to delete calibrations: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCalibration(s scanner) (*model.Calibration, error) {
	var (
		c       model.Calibration
		payload string
	)
	err := s.Scan(&c.ID, &payload, &c.Source, &c.Applied, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calibration: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &c.Payload); err != nil {
		return nil, fmt.Errorf("calibration %d has a corrupt payload: %w", c.ID, err)
	}
	return &c, nil
}
