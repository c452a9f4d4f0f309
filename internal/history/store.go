package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// StepRecord is one step outcome within a stored run.
type StepRecord struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Elapsed string `json:"elapsed,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Run is one stored workflow invocation.
type Run struct {
	RunID        string
	Artist       string
	Title        string
	ReleaseDir   string
	Aborted      bool
	Succeeded    int
	Skipped      int
	Failed       int
	ErrorMessage string
	Elapsed      time.Duration
	Steps        []StepRecord
	StartedAt    time.Time
}

// Open initializes or connects to the history database and applies
// migrations. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// RecordRun inserts one run outcome.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	stepsJSON, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshal step records: %w", err)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (
            run_id, artist, title, release_dir, aborted,
            succeeded, skipped, failed, error_message,
            elapsed_ms, steps_json, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Artist,
		run.Title,
		run.ReleaseDir,
		boolToInt(run.Aborted),
		run.Succeeded,
		run.Skipped,
		run.Failed,
		nullableString(run.ErrorMessage),
		run.Elapsed.Milliseconds(),
		string(stepsJSON),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// returns everything.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, artist, title, release_dir, aborted,
            succeeded, skipped, failed, error_message,
            elapsed_ms, steps_json, started_at
        FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var aborted int
		var errorMessage sql.NullString
		var elapsedMS int64
		var stepsJSON, startedAt string
		if err := rows.Scan(
			&run.RunID, &run.Artist, &run.Title, &run.ReleaseDir, &aborted,
			&run.Succeeded, &run.Skipped, &run.Failed, &errorMessage,
			&elapsedMS, &stepsJSON, &startedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Aborted = aborted != 0
		run.ErrorMessage = errorMessage.String
		run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if err := json.Unmarshal([]byte(stepsJSON), &run.Steps); err != nil {
			return nil, fmt.Errorf("parse step records for %s: %w", run.RunID, err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, startedAt); parseErr == nil {
			run.StartedAt = parsed
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
