package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// migrations are applied in order; PRAGMA user_version records how many ran.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS calibrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		payload TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'dashboard',
		applied INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_calibrations_created_at ON calibrations(created_at);
	`,
	`
	CREATE TABLE IF NOT EXISTS telemetry (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		total_vehicles INTEGER DEFAULT 0,
		total_seats INTEGER DEFAULT 0,
		incoming_vehicles INTEGER DEFAULT 0,
		outgoing_vehicles INTEGER DEFAULT 0,
		seats_inside INTEGER DEFAULT 0,
		accuracy REAL DEFAULT 0,
		processing_ms INTEGER DEFAULT 0,
		last_update TEXT DEFAULT '',
		vehicle_types TEXT DEFAULT '',
		received_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_telemetry_received_at ON telemetry(received_at);
	`,
}

// DB is the garage store. Writers take the exclusive lock, readers the
// shared one; the pool holds a single connection.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New opens (creating if needed) the database at dbPath and brings its
// schema up to date.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Version reports how many migrations have been applied.
func (db *DB) Version() (int, error) {
	var v int
	err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&v)
	return v, err
}

func (db *DB) migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	current, err := db.Version()
	if err != nil {
		return err
	}

	for v := current; v < len(migrations); v++ {
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, v+1)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the connection pool for the repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Lock()    { db.mu.Lock() }
func (db *DB) Unlock()  { db.mu.Unlock() }
func (db *DB) RLock()   { db.mu.RLock() }
func (db *DB) RUnlock() { db.mu.RUnlock() }
