// Package store keeps the history of runs and applications in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/apply4me/internal/types"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		submitted INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		listing TEXT NOT NULL,
		url TEXT,
		status TEXT NOT NULL,
		answered TEXT,
		skipped TEXT,
		error TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_applications_run_id ON applications(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// StartRun records the beginning of a run and returns its ID
func (s *Store) StartRun(startedAt time.Time) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO runs (started_at) VALUES (?)`, startedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stores the outcome of a run
func (s *Store) FinishRun(id int64, result *types.RunResult) error {
	res, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, submitted = ?, failed = ?, error = ?
		WHERE id = ?
	`, result.FinishedAt, result.Submitted(), result.Failed(), result.Error, id)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d not found", id)
	}
	return nil
}

// SaveAttempt records one application attempt of a run
func (s *Store) SaveAttempt(runID int64, a types.Attempt) error {
	answeredJSON, _ := json.Marshal(a.Answered)
	skippedJSON, _ := json.Marshal(a.Skipped)

	_, err := s.db.Exec(`
		INSERT INTO applications (run_id, listing, url, status, answered, skipped,
			error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, a.Listing, a.URL, string(a.Status), string(answeredJSON), string(skippedJSON),
		a.Error, a.StartedAt, a.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, submitted, failed, error
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &r.Submitted, &r.Failed, &r.Error); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedAt = finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunAttempts returns the attempts of a run in the order they were made
func (s *Store) RunAttempts(runID int64) ([]types.Attempt, error) {
	rows, err := s.db.Query(`
		SELECT listing, url, status, answered, skipped, error, started_at, finished_at
		FROM applications
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []types.Attempt
	for rows.Next() {
		var a types.Attempt
		var status, answeredJSON, skippedJSON string

		err := rows.Scan(&a.Listing, &a.URL, &status, &answeredJSON, &skippedJSON,
			&a.Error, &a.StartedAt, &a.FinishedAt)
		if err != nil {
			return nil, err
		}

		a.Status = types.Status(status)
		if err := json.Unmarshal([]byte(answeredJSON), &a.Answered); err != nil {
			return nil, fmt.Errorf("failed to decode answered questions of %q: %w", a.Listing, err)
		}
		if err := json.Unmarshal([]byte(skippedJSON), &a.Skipped); err != nil {
			return nil, fmt.Errorf("failed to decode skipped questions of %q: %w", a.Listing, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// SubmittedSince counts successful applications started at or after t
func (s *Store) SubmittedSince(t time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM applications WHERE status = ? AND started_at >= ?
	`, string(types.StatusSubmitted), t).Scan(&n)
	return n, err
}
