// Package batch cleans many datasets in one run. Datasets are independent:
// one failing never stops the others, and results come back in input
// order.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/schema"
)

// ErrOutputLocked is returned when another process holds the output
// directory lock.
var ErrOutputLocked = errors.New("output directory is locked by another run")

// LockFile is the advisory lock taken inside the output directory.
const LockFile = ".csvclean.lock"

// Status classifies a dataset outcome.
type Status string

const (
	StatusOK           Status = "ok"
	StatusSkipped      Status = "skipped"
	StatusUnconfigured Status = "unconfigured"
	StatusFailed       Status = "failed"
)

// Result is the outcome of one dataset.
type Result struct {
	Name     string
	Path     string
	Report   *core.CleanReport
	Err      error
	Started  time.Time
	Finished time.Time
}

// Status derives the outcome class from the report and error.
func (r Result) Status() Status {
	switch {
	case errors.Is(r.Err, schema.ErrUnknownDataset):
		return StatusUnconfigured
	case r.Err != nil:
		return StatusFailed
	case r.Report != nil && r.Report.Skipped():
		return StatusSkipped
	}
	return StatusOK
}

// Options configures a batch run.
type Options struct {
	Clean core.Options
	// Workers bounds parallel datasets; <= 0 uses GOMAXPROCS.
	Workers int
	// OnResult, when set, is called as each dataset finishes. Calls may
	// come from several goroutines.
	OnResult func(Result)
}

// Run cleans every target with the schema the catalog holds for its file
// name. The output directory is created and locked for the whole run.
func Run(ctx context.Context, targets []string, catalog *schema.Catalog, opts Options) ([]Result, error) {
	unlock, err := lockOutput(opts.Clean.OutputDir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(targets))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range targets {
		g.Go(func() error {
			results[i] = cleanOne(ctx, path, catalog, opts.Clean)
			if opts.OnResult != nil {
				opts.OnResult(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func cleanOne(ctx context.Context, path string, catalog *schema.Catalog, opts core.Options) Result {
	name := filepath.Base(path)
	res := Result{Name: name, Path: path, Started: time.Now()}

	ctx = logging.WithDataset(ctx, name)
	s, err := catalog.Lookup(name)
	if err != nil {
		logging.FromContext(ctx).Warn("no rules defined for dataset")
		res.Err = err
		res.Finished = time.Now()
		return res
	}
	res.Report, res.Err = core.Clean(ctx, path, s, opts)
	if res.Err != nil {
		logging.FromContext(ctx).Error("dataset failed", "error", res.Err)
	}
	res.Finished = time.Now()
	return res
}

// lockOutput creates dir and takes its advisory lock exclusively.
func lockOutput(dir string) (func(), error) {
	return takeLock(dir, (*flock.Flock).TryLock)
}

// SharedLock takes the output directory lock in shared mode. Any number of
// shared holders may clean single datasets into dir together, while a batch
// Run, which needs the lock exclusively, is kept out until they release.
func SharedLock(dir string) (func(), error) {
	return takeLock(dir, (*flock.Flock).TryRLock)
}

func takeLock(dir string, try func(*flock.Flock) (bool, error)) (func(), error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := try(lock)
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, dir)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logging.FromContext(context.Background()).Warn("failed to release output lock", "error", err)
		}
	}, nil
}
