package history

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "history", "runs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReport() *core.CleanReport {
	out := "/tmp/out/clean_people.csv"
	return &core.CleanReport{
		CSVName:             "people.csv",
		OutputPath:          &out,
		OriginalRows:        3,
		PreLimitRows:        3,
		FilteredRows:        3,
		CleanedRows:         2,
		RemovedRows:         1,
		RetentionPercentage: 2.0 / 3.0 * 100,
		RuleFailures:        map[string]int{"age:notNegative": 1},
		Messages:            []string{},
	}
}

// ---- Run Tests ----

func TestNewRun(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)

	tests := []struct {
		name       string
		report     *core.CleanReport
		err        error
		wantStatus string
	}{
		{"ok", sampleReport(), nil, StatusOK},
		{"skipped", &core.CleanReport{CSVName: "x.csv"}, nil, StatusSkipped},
		{"failed", nil, errors.New("boom"), StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := NewRun("people.csv", tt.report, tt.err, started, finished)
			if run.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", run.Status, tt.wantStatus)
			}
			if run.ID == uuid.Nil {
				t.Error("ID not set")
			}
			if run.Duration() != 1500*time.Millisecond {
				t.Errorf("Duration() = %v", run.Duration())
			}
			if run.Failures == nil || run.Messages == nil {
				t.Error("Failures and Messages must be non-nil")
			}
		})
	}
}

// ---- SQLite Store Tests ----

func TestSQLiteRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	run := NewRun("people.csv", sampleReport(), nil, started, started.Add(time.Second))
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, run) {
		t.Errorf("Get() = %+v, want %+v", got, run)
	}
}

func TestSQLiteRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i, dataset := range []string{"a.csv", "b.csv", "a.csv", "a.csv"} {
		at := base.Add(time.Duration(i) * time.Minute)
		run := NewRun(dataset, sampleReport(), nil, at, at)
		ids = append(ids, run.ID)
		if err := store.Record(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.Recent(ctx, "a.csv", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != ids[3] || runs[1].ID != ids[2] {
		t.Errorf("Recent(a.csv, 2) returned %d runs, want newest two of a.csv", len(runs))
	}

	all, err := store.Recent(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("Recent(\"\") returned %d runs, want 4", len(all))
	}
}

func TestSQLiteGetMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()
	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	run := NewRun("a.csv", nil, errors.New("invalid csv"), time.Now(), time.Now())
	if err := store.Record(ctx, run); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusFailed || got.Error != "invalid csv" {
		t.Errorf("reopened run = %+v", got)
	}
}

// ---- Open Tests ----

func TestOpen(t *testing.T) {
	ctx := context.Background()

	nop, err := Open(ctx, config.HistoryConfig{Driver: "none"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := nop.(Nop); !ok {
		t.Errorf("Open(none) = %T, want Nop", nop)
	}
	if _, err := nop.Get(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Nop.Get() error = %v", err)
	}

	sqlite, err := Open(ctx, config.HistoryConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "h.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer sqlite.Close()
	if _, ok := sqlite.(*SQLiteStore); !ok {
		t.Errorf("Open(sqlite) = %T", sqlite)
	}

	if _, err := Open(ctx, config.HistoryConfig{Driver: "mysql"}); err == nil {
		t.Error("Open(mysql) should fail")
	}
	if _, err := Open(ctx, config.HistoryConfig{Driver: "postgres", URL: "::not a url"}); err == nil {
		t.Error("Open(postgres) with a bad URL should fail")
	}
}
