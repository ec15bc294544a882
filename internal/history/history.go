// Package history records finished cleaning runs so operators can compare
// retention across runs of the same dataset.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Status values stored with each run.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Run is one recorded dataset run.
type Run struct {
	ID           uuid.UUID      `json:"id"`
	Dataset      string         `json:"dataset"`
	Status       string         `json:"status"`
	OutputPath   string         `json:"output_path,omitempty"`
	OriginalRows int            `json:"original_rows"`
	PreLimitRows int            `json:"pre_limit_rows"`
	FilteredRows int            `json:"filtered_rows"`
	CleanedRows  int            `json:"cleaned_rows"`
	RemovedRows  int            `json:"removed_rows"`
	Retention    float64        `json:"retention_percentage"`
	Failures     map[string]int `json:"rule_failures"`
	Messages     []string       `json:"messages"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// NewRun builds a Run from a report or the error that prevented one.
func NewRun(dataset string, report *core.CleanReport, err error, started, finished time.Time) Run {
	run := Run{
		ID:         uuid.New(),
		Dataset:    dataset,
		Status:     StatusOK,
		Failures:   map[string]int{},
		Messages:   []string{},
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
	}
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		return run
	}
	if report.Skipped() {
		run.Status = StatusSkipped
	}
	run.OutputPath = report.Output()
	run.OriginalRows = report.OriginalRows
	run.PreLimitRows = report.PreLimitRows
	run.FilteredRows = report.FilteredRows
	run.CleanedRows = report.CleanedRows
	run.RemovedRows = report.RemovedRows
	run.Retention = report.RetentionPercentage
	if report.RuleFailures != nil {
		run.Failures = report.RuleFailures
	}
	if report.Messages != nil {
		run.Messages = report.Messages
	}
	return run
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	// Recent returns up to limit runs of dataset, newest first. An empty
	// dataset lists every dataset.
	Recent(ctx context.Context, dataset string, limit int) ([]Run, error)
	Get(ctx context.Context, id uuid.UUID) (Run, error)
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return Nop{}, nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case "postgres":
		return OpenPostgres(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
}

// Nop discards runs.
type Nop struct{}

func (Nop) Record(context.Context, Run) error { return nil }
func (Nop) Recent(context.Context, string, int) ([]Run, error) { return nil, nil }
func (Nop) Get(context.Context, uuid.UUID) (Run, error) { return Run{}, ErrNotFound }
func (Nop) Close() error { return nil }
