package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/schema"
)

// Clean runs one dataset through loading, column selection,
// standardisation, coercion and validation, writes the surviving rows to
// OutputDir/clean_<name> and reports what happened. Validation failures
// are data in the report; an error means the dataset could not be
// processed at all.
func Clean(ctx context.Context, path string, s *schema.Schema, opts Options) (*CleanReport, error) {
	name := filepath.Base(path)
	if s.Name != "" {
		name = s.Name
	}
	logger := opts.logger(ctx).With("dataset", name)
	started := time.Now()
	logger.Info("cleaning dataset", "path", path)

	for _, u := range s.Unknown {
		logger.Warn("ignoring unknown rule", "stage", u.Stage, "column", u.Column, "rule", u.Rule)
	}

	frame, err := LoadFile(path, LoadSpecFor(s, opts.Limit))
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded", "rows", frame.OriginalRows, "columns", len(frame.Columns), "bytes", frame.Bytes, "elapsed", time.Since(started))

	report := newReport(name, frame)
	if opts.limited() && frame.PreLimitRows > opts.Limit {
		report.Messages = append(report.Messages, limitMessage(opts.Limit, frame.PreLimitRows))
	}
	report.MissingColumns = MissingColumns(frame, s.Validation)
	if len(report.MissingColumns) > 0 {
		report.Messages = append(report.Messages, missingMessage(name, report.MissingColumns))
	}
	report.UnknownRules = len(s.Unknown)

	selected := frame.Select(func(column string) bool {
		_, ok := s.Validation.For(column)
		return ok
	})
	report.FilteredRows = selected.Len()

	if len(selected.Columns) == 0 {
		report.RemovedRows = report.FilteredRows
		report.Messages = []string{SkipMessage}
		logger.Warn("no configured column matched; skipping export", "missing", len(report.MissingColumns))
		return report, nil
	}
	for _, u := range s.Unknown {
		report.Messages = append(report.Messages, unknownMessage(u))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := &rules.Env{Quantitative: opts.Quantitative}
	applied, err := Standardize(selected, s.Standardisation, env)
	if err != nil {
		return nil, err
	}
	report.AppliedStandardisations = applied

	kinds := Coerce(selected, s.Validation)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	validator := NewRowValidator(selected, s.Validation, opts.Now)
	keep, failures := validator.Validate(selected.Len())
	selected.filterRows(keep)
	report.RuleFailures = failures
	report.CleanedRows = selected.Len()
	report.RemovedRows = report.FilteredRows - report.CleanedRows
	report.RetentionPercentage = Retention(report.CleanedRows, report.FilteredRows)

	out := filepath.Join(opts.OutputDir, OutputName(name))
	if err := WriteFrame(out, selected, kinds); err != nil {
		return nil, fmt.Errorf("write %s: %w", out, err)
	}
	report.OutputPath = &out

	logger.Info("dataset cleaned",
		"kept", report.CleanedRows,
		"total", report.FilteredRows,
		"retention", fmt.Sprintf("%.2f", report.RetentionPercentage),
		"output", out,
		"elapsed", time.Since(started),
	)
	return report, nil
}
