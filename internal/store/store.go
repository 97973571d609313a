// Package store persists batch runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/camreach/internal/batch"
	"github.com/banshee-data/camreach/internal/camera"
)

// ErrNotFound is returned by GetRun for an unknown id.
var ErrNotFound = errors.New("run not found")

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one persisted batch evaluation. ListRuns leaves Rows empty.
type Run struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	MinPixelGap        float64   `json:"min_pixel_gap"`
	CameraHeightMeters float64   `json:"camera_height_meters"`
	MarkerGapMeters    float64   `json:"marker_gap_meters"`
	Rows               []RunRow  `json:"rows,omitempty"`
}

// RunRow is the stored form of a batch.Row.
type RunRow struct {
	Zoom           float64 `json:"zoom"`
	FocalLengthMM  float64 `json:"focal_length_mm"`
	DistanceMeters float64 `json:"distance_meters"`
	LineCount      int     `json:"line_count"`
	TiltRadians    float64 `json:"tilt_radians"`
	TiltConverged  bool    `json:"tilt_converged"`
	Error          string  `json:"error,omitempty"`
}

// NewRun builds a Run with a fresh id from batch output. cfg is the rig the
// rows were computed against, overrides included.
func NewRun(cfg camera.Configuration, minPixelGap float64, rows []batch.Row) Run {
	run := Run{
		ID:                 uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		MinPixelGap:        minPixelGap,
		CameraHeightMeters: cfg.HeightMeters,
		MarkerGapMeters:    cfg.MarkerGapMeters,
		Rows:               make([]RunRow, len(rows)),
	}
	for i, r := range rows {
		a := r.Analysis
		rr := RunRow{
			Zoom:           r.Zoom,
			FocalLengthMM:  a.FocalLengthMM,
			DistanceMeters: a.DistanceMeters,
			LineCount:      a.LineCount,
			TiltRadians:    a.Tilt.Radians(),
			TiltConverged:  a.TiltConverged,
		}
		if r.Err != nil {
			rr.Error = r.Err.Error()
		}
		run.Rows[i] = rr
	}
	return run
}

// Store is a SQLite-backed run store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts run and its rows in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save of run %s: %w", run.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, min_pixel_gap, camera_height_meters, marker_gap_meters)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt.UTC().Format(timeLayout), run.MinPixelGap, run.CameraHeightMeters, run.MarkerGapMeters)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_rows (
			run_id, position, zoom, focal_length_mm, distance_meters,
			line_count, tilt_radians, tilt_converged, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing rows for run %s: %w", run.ID, err)
	}
	defer stmt.Close()

	for i, r := range run.Rows {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, r.Zoom, r.FocalLengthMM, r.DistanceMeters,
			r.LineCount, r.TiltRadians, r.TiltConverged, nullStr(r.Error),
		); err != nil {
			return fmt.Errorf("inserting row %d of run %s: %w", i, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns a run with its rows in their original order.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, min_pixel_gap, camera_height_meters, marker_gap_meters
		FROM runs WHERE run_id = ?
	`, id).Scan(&run.ID, &createdAt, &run.MinPixelGap, &run.CameraHeightMeters, &run.MarkerGapMeters)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}
	if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at for run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT zoom, focal_length_mm, distance_meters, line_count, tilt_radians, tilt_converged, error
		FROM run_rows WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying rows for run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r RunRow
		var errMsg sql.NullString
		if err := rows.Scan(&r.Zoom, &r.FocalLengthMM, &r.DistanceMeters, &r.LineCount,
			&r.TiltRadians, &r.TiltConverged, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning row for run %s: %w", id, err)
		}
		r.Error = errMsg.String
		run.Rows = append(run.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first, without their rows.
// A non-positive limit defaults to 50.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, min_pixel_gap, camera_height_meters, marker_gap_meters
		FROM runs ORDER BY created_at DESC, run_id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &createdAt, &run.MinPixelGap, &run.CameraHeightMeters, &run.MarkerGapMeters); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at for run %s: %w", run.ID, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
