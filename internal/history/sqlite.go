package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS clean_runs (
	id             TEXT PRIMARY KEY,
	dataset        TEXT NOT NULL,
	status         TEXT NOT NULL,
	output_path    TEXT NOT NULL DEFAULT '',
	original_rows  INTEGER NOT NULL,
	pre_limit_rows INTEGER NOT NULL,
	filtered_rows  INTEGER NOT NULL,
	cleaned_rows   INTEGER NOT NULL,
	removed_rows   INTEGER NOT NULL,
	retention      REAL NOT NULL,
	failures       TEXT NOT NULL,
	messages       TEXT NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	started_at     INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS clean_runs_dataset_finished ON clean_runs (dataset, finished_at DESC);
`

const runColumns = `id, dataset, status, output_path, original_rows, pre_limit_rows,
	filtered_rows, cleaned_rows, removed_rows, retention, failures, messages, error,
	started_at, finished_at`

// SQLiteStore keeps runs in a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy reruns op with backoff while another connection holds the
// write lock.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}

// Record inserts run.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return err
	}
	messages, err := json.Marshal(run.Messages)
	if err != nil {
		return err
	}
	query := `INSERT INTO clean_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query,
			run.ID.String(), run.Dataset, run.Status, run.OutputPath,
			run.OriginalRows, run.PreLimitRows, run.FilteredRows, run.CleanedRows, run.RemovedRows,
			run.Retention, string(failures), string(messages), run.Error,
			run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		)
		return err
	})
}

// Recent lists the newest runs of dataset.
func (s *SQLiteStore) Recent(ctx context.Context, dataset string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM clean_runs
		WHERE (? = '' OR dataset = ?)
		ORDER BY finished_at DESC, id
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, dataset, dataset, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get loads one run.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM clean_runs WHERE id = ?`, id.String())
	run, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row scanner) (Run, error) {
	var (
		run                Run
		id                 string
		failures, messages string
		started, finished  int64
	)
	err := row.Scan(&id, &run.Dataset, &run.Status, &run.OutputPath,
		&run.OriginalRows, &run.PreLimitRows, &run.FilteredRows, &run.CleanedRows, &run.RemovedRows,
		&run.Retention, &failures, &messages, &run.Error, &started, &finished)
	if err != nil {
		return Run{}, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("run id %q: %w", id, err)
	}
	if err := decodeJSON(failures, messages, &run); err != nil {
		return Run{}, err
	}
	run.StartedAt = time.Unix(0, started).UTC()
	run.FinishedAt = time.Unix(0, finished).UTC()
	return run, nil
}

func decodeJSON(failures, messages string, run *Run) error {
	if err := json.Unmarshal([]byte(failures), &run.Failures); err != nil {
		return fmt.Errorf("decode failures: %w", err)
	}
	if err := json.Unmarshal([]byte(messages), &run.Messages); err != nil {
		return fmt.Errorf("decode messages: %w", err)
	}
	return nil
}
