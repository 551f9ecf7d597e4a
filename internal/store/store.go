// Package store persists calibration mappings and job results in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/photonlab/qgrid/internal/calib"
)

// DB wraps the SQLite handle used for calibration and result persistence.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the store at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS calibrations (
			id TEXT PRIMARY KEY,
			grid_rows INTEGER NOT NULL,
			grid_cols INTEGER NOT NULL,
			mapping TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS results (
			job_id TEXT PRIMARY KEY,
			bitstring TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// SaveMapping upserts a calibration mapping under the given identifier.
// The mapping is stored in its flat "row_col": [x, y] JSON form.
func (db *DB) SaveMapping(id string, rows, cols int, mapping calib.Mapping) error {
	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to serialize mapping %q: %v", id, err)
	}
	_, err = db.Exec(`
		INSERT INTO calibrations (id, grid_rows, grid_cols, mapping, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			grid_rows = excluded.grid_rows,
			grid_cols = excluded.grid_cols,
			mapping = excluded.mapping,
			created_at = excluded.created_at
	`, id, rows, cols, string(data), time.Now())
	return err
}

// LoadMapping loads a stored calibration mapping and its grid dimensions.
func (db *DB) LoadMapping(id string) (calib.Mapping, int, int, error) {
	var data string
	var rows, cols int
	err := db.QueryRow(
		"SELECT grid_rows, grid_cols, mapping FROM calibrations WHERE id = ?", id,
	).Scan(&rows, &cols, &data)
	if err == sql.ErrNoRows {
		return nil, 0, 0, fmt.Errorf("calibration %q not found", id)
	}
	if err != nil {
		return nil, 0, 0, err
	}

	var mapping calib.Mapping
	if err := json.Unmarshal([]byte(data), &mapping); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to parse mapping %q: %v", id, err)
	}
	return mapping, rows, cols, nil
}

// SaveResult records the final bitstring observed for a job.
func (db *DB) SaveResult(jobID, bitstring string) error {
	_, err := db.Exec(`
		INSERT INTO results (job_id, bitstring, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			bitstring = excluded.bitstring,
			created_at = excluded.created_at
	`, jobID, bitstring, time.Now())
	return err
}

// LoadResult returns the stored bitstring for a job.
func (db *DB) LoadResult(jobID string) (string, error) {
	var bitstring string
	err := db.QueryRow("SELECT bitstring FROM results WHERE job_id = ?", jobID).Scan(&bitstring)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("result for job %q not found", jobID)
	}
	if err != nil {
		return "", err
	}
	return bitstring, nil
}
