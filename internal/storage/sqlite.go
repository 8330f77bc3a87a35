package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/signalsfoundry/bubble-simulator/core"
)

// SQLiteStore persists runs to a single SQLite file: the resolved parameter
// set as key/value metadata, per-step scalar summaries, and the full sparse
// rank or bin counts.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// NewSQLiteStore creates a store for the given file path. Open must be
// called before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Open connects to the database and creates the schema if absent.
func (s *SQLiteStore) Open(ctx context.Context) error {
	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS params (
			run_id TEXT NOT NULL,
			key    TEXT NOT NULL,
			value  TEXT NOT NULL,
			PRIMARY KEY (run_id, key)
		);
		CREATE TABLE IF NOT EXISTS snapshots (
			run_id        TEXT NOT NULL,
			step          INTEGER NOT NULL,
			count         INTEGER NOT NULL,
			mean_diameter REAL,
			mean_d2       REAL,
			mean_d3       REAL,
			underflow     INTEGER NOT NULL DEFAULT 0,
			overflow      INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, step)
		);
		CREATE TABLE IF NOT EXISTS counts (
			run_id TEXT NOT NULL,
			step   INTEGER NOT NULL,
			key    INTEGER NOT NULL,
			count  INTEGER NOT NULL,
			PRIMARY KEY (run_id, step, key)
		);
	`)
	return err
}

// WriteRun persists one run: parameters plus the whole time series, in a
// single transaction keyed by runID.
func (s *SQLiteStore) WriteRun(ctx context.Context, runID string, params *core.Params, series *core.TimeSeries) error {
	if s.db == nil {
		return errors.New("sqlite store is not open")
	}
	if runID == "" {
		return errors.New("run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range params.Export() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO params (run_id, key, value) VALUES (?, ?, ?)`,
			runID, p.Key, fmt.Sprintf("%v", p.Value)); err != nil {
			return fmt.Errorf("insert param %s: %w", p.Key, err)
		}
	}

	for _, snap := range series.Snapshots() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (run_id, step, count, mean_diameter, mean_d2, mean_d3, underflow, overflow)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, snap.Step, snap.Count, nullableFloat(snap.MeanDiameter), nullableFloat(snap.MeanD2), nullableFloat(snap.MeanD3),
			snap.Underflow, snap.Overflow); err != nil {
			return fmt.Errorf("insert snapshot step %d: %w", snap.Step, err)
		}
		if snap.Ranks != nil {
			for rank, count := range snap.Ranks {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO counts (run_id, step, key, count) VALUES (?, ?, ?, ?)`,
					runID, snap.Step, rank, count); err != nil {
					return fmt.Errorf("insert rank count step %d: %w", snap.Step, err)
				}
			}
			continue
		}
		for bin, count := range snap.BinCounts {
			if count == 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO counts (run_id, step, key, count) VALUES (?, ?, ?, ?)`,
				runID, snap.Step, bin, count); err != nil {
				return fmt.Errorf("insert bin count step %d: %w", snap.Step, err)
			}
		}
	}

	return tx.Commit()
}

// nullableFloat maps the NaN empty-population sentinel to SQL NULL.
func nullableFloat(f float64) any {
	if math.IsNaN(f) {
		return nil
	}
	return f
}

// CountRows returns the number of snapshot records stored for runID.
func (s *SQLiteStore) CountRows(ctx context.Context, runID string) (int, error) {
	if s.db == nil {
		return 0, errors.New("sqlite store is not open")
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}
