package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"smartgarage/internal/dto"
	"smartgarage/internal/model"
)

// TelemetryRepository implements repository.TelemetryRepository for SQLite.
type TelemetryRepository struct {
	db *DB
}

// NewTelemetryRepository creates a new SQLite telemetry repository.
func NewTelemetryRepository(db *DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

const telemetryColumns = `id, total_vehicles, total_seats, incoming_vehicles, outgoing_vehicles,
	seats_inside, accuracy, processing_ms, last_update, vehicle_types, received_at`

// InsertBatch adds multiple snapshots in a single transaction.
func (r *TelemetryRepository) InsertBatch(snapshots []model.TelemetrySnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO telemetry (total_vehicles, total_seats, incoming_vehicles, outgoing_vehicles,
			seats_inside, accuracy, processing_ms, last_update, vehicle_types, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		types := ""
		if len(snap.Stats.VehicleTypes) > 0 {
			encoded, err := json.Marshal(snap.Stats.VehicleTypes)
			if err != nil {
				return fmt.Errorf("failed to encode vehicle types: %w", err)
			}
			types = string(encoded)
		}
		receivedAt := snap.ReceivedAt
		if receivedAt.IsZero() {
			receivedAt = time.Now()
		}

		s := snap.Stats
		if _, err := stmt.Exec(s.TotalVehicles, s.TotalSeats, s.IncomingVehicles, s.OutgoingVehicles,
			s.CurrentSeatsInside, s.DetectionAccuracy, s.ProcessingTimeMs, s.LastUpdate, types, receivedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
	}

	return tx.Commit()
}

// Latest returns the most recent snapshot, or nil when the table is empty.
func (r *TelemetryRepository) Latest() (*model.TelemetrySnapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT ` + telemetryColumns + ` FROM telemetry ORDER BY received_at DESC, id DESC LIMIT 1`)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

// GetAll returns snapshots in chronological order. With a limit, the most
// recent snapshots are kept.
func (r *TelemetryRepository) GetAll(filter *dto.TelemetryFilter) ([]model.TelemetrySnapshot, error) {
	if filter == nil {
		filter = &dto.TelemetryFilter{}
	}

	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + telemetryColumns + ` FROM telemetry WHERE 1=1`
	args := []interface{}{}

	if !filter.Since.IsZero() {
		query += " AND received_at >= ?"
		args = append(args, filter.Since.UTC())
	}

	if !filter.Until.IsZero() {
		query += " AND received_at <= ?"
		args = append(args, filter.Until.UTC())
	}

	query += " ORDER BY received_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry: %w", err)
	}
	defer rows.Close()

	var snapshots []model.TelemetrySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}
	return snapshots, nil
}

// Count returns the number of stored snapshots.
func (r *TelemetryRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM telemetry`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count telemetry: %w", err)
	}
	return count, nil
}

// DeleteBefore removes snapshots received before t and reports how many went.
func (r *TelemetryRepository) DeleteBefore(t time.Time) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM telemetry WHERE received_at < ?`, t.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete telemetry: %w", err)
	}
	return result.RowsAffected()
}

func scanSnapshot(s scanner) (*model.TelemetrySnapshot, error) {
	var (
		snap  model.TelemetrySnapshot
		types string
	)
	st := &snap.Stats
	if err := s.Scan(&snap.ID, &st.TotalVehicles, &st.TotalSeats, &st.IncomingVehicles, &st.OutgoingVehicles,
		&st.CurrentSeatsInside, &st.DetectionAccuracy, &st.ProcessingTimeMs, &st.LastUpdate, &types, &snap.ReceivedAt); err != nil {
		return nil, err
	}
	if types != "" {
		if err := json.Unmarshal([]byte(types), &st.VehicleTypes); err != nil {
			return nil, fmt.Errorf("snapshot %d has corrupt vehicle types: %w", snap.ID, err)
		}
	}
	return &snap, nil
}
