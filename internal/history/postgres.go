package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvclean/internal/config"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS clean_runs (
	id             UUID PRIMARY KEY,
	dataset        TEXT NOT NULL,
	status         TEXT NOT NULL,
	output_path    TEXT NOT NULL DEFAULT '',
	original_rows  INTEGER NOT NULL,
	pre_limit_rows INTEGER NOT NULL,
	filtered_rows  INTEGER NOT NULL,
	cleaned_rows   INTEGER NOT NULL,
	removed_rows   INTEGER NOT NULL,
	retention      DOUBLE PRECISION NOT NULL,
	failures       JSONB NOT NULL,
	messages       JSONB NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS clean_runs_dataset_finished ON clean_runs (dataset, finished_at DESC);
`

// PostgresStore keeps runs in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects using cfg.URL and the pool limits of cfg.
func OpenPostgres(ctx context.Context, cfg config.HistoryConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return NewPostgres(ctx, pool)
}

// NewPostgres wraps an existing pool and creates the table if needed.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Record inserts run.
func (s *PostgresStore) Record(ctx context.Context, run Run) error {
	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return err
	}
	messages, err := json.Marshal(run.Messages)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO clean_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		run.ID.String(), run.Dataset, run.Status, run.OutputPath,
		run.OriginalRows, run.PreLimitRows, run.FilteredRows, run.CleanedRows, run.RemovedRows,
		run.Retention, failures, messages, run.Error,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent lists the newest runs of dataset.
func (s *PostgresStore) Recent(ctx context.Context, dataset string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM clean_runs
		WHERE ($1 = '' OR dataset = $1)
		ORDER BY finished_at DESC, id
		LIMIT $2`,
		dataset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		return scanPostgresRun(row)
	})
}

// Get loads one run.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM clean_runs WHERE id = $1`, id.String())
	run, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresRun(row pgx.Row) (Run, error) {
	var (
		run                Run
		id                 string
		failures, messages []byte
	)
	err := row.Scan(&id, &run.Dataset, &run.Status, &run.OutputPath,
		&run.OriginalRows, &run.PreLimitRows, &run.FilteredRows, &run.CleanedRows, &run.RemovedRows,
		&run.Retention, &failures, &messages, &run.Error, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		return Run{}, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("run id %q: %w", id, err)
	}
	if err := decodeJSON(string(failures), string(messages), &run); err != nil {
		return Run{}, err
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return run, nil
}
