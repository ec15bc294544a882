package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/batch"
	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/history"
)

type cleanOptions struct {
	csv       []string
	dataDir   string
	outputDir string
	stats     bool
	limit     int
	workers   int
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var opts cleanOptions

	cmd := &cobra.Command{
		Use:   "clean [file.csv...]",
		Short: "Clean CSV files from the data directory",
		Long: "Clean raw CSV exports by applying schema-specific rules. Without file\n" +
			"names every *.csv file in the data directory is cleaned.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, ctx, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.csv, "csv", nil, "CSV file names (relative to the data directory) to clean")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory containing raw CSV files (default from CSVCLEAN_DATA_DIR)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Directory where cleaned CSV files are written (default from CSVCLEAN_OUTPUT_DIR)")
	flags.BoolVar(&opts.stats, "stats", false, "Display rule failure statistics for each processed CSV")
	flags.IntVar(&opts.limit, "limit", 0, "Limit the number of rows processed for each CSV")
	flags.IntVar(&opts.workers, "workers", 0, "Datasets cleaned in parallel (default from CSVCLEAN_WORKERS)")

	return cmd
}

func runClean(cmd *cobra.Command, ctx *commandContext, opts cleanOptions, args []string) error {
	cfg := ctx.cfg
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Paths.DataDir = opts.dataDir
	}
	if flags.Changed("output-dir") {
		cfg.Paths.OutputDir = opts.outputDir
	}
	if flags.Changed("limit") {
		cfg.Engine.Limit = opts.limit
	}
	if flags.Changed("workers") {
		cfg.Engine.Workers = opts.workers
	}

	names := append(opts.csv, args...)
	if len(names) == 0 {
		names = cfg.Engine.Datasets
	}

	out := newPrinter(cmd.OutOrStdout())

	targets, warnings, err := batch.CollectTargets(cfg.Paths.DataDir, names)
	if errors.Is(err, batch.ErrDataDirMissing) {
		abs, _ := filepath.Abs(cfg.Paths.DataDir)
		out.line("[ERROR] Data directory %s does not exist.", abs)
		return exitError{code: 1}
	}
	if err != nil {
		return err
	}
	for _, w := range warnings {
		out.line("[WARN] %s", w)
	}
	if len(targets) == 0 {
		out.line("[WARN] No CSV files matched the provided criteria.")
		return nil
	}

	catalog, err := ctx.catalog()
	if err != nil {
		return err
	}

	runCtx := cmd.Context()
	store := ctx.openHistory(runCtx)
	defer store.Close()

	results, err := batch.Run(runCtx, targets, catalog, batch.Options{
		Clean: core.Options{
			OutputDir:    cfg.Paths.OutputDir,
			Limit:        cfg.Engine.Limit,
			Quantitative: ctx.quantitative(),
			Logger:       ctx.logger,
		},
		Workers: cfg.Engine.Workers,
		OnResult: func(r batch.Result) {
			ctx.logger.Debug("dataset finished", "dataset", r.Name, "status", r.Status(), "elapsed", r.Finished.Sub(r.Started))
		},
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		out.result(r, opts.stats)
		switch r.Status() {
		case batch.StatusUnconfigured:
			continue
		case batch.StatusFailed:
			failed++
		}
		run := history.NewRun(r.Name, r.Report, r.Err, r.Started, r.Finished)
		if err := store.Record(runCtx, run); err != nil {
			ctx.logger.Warn("failed to record run", "dataset", r.Name, "error", err)
		}
	}

	if failed > 0 {
		return exitError{code: 1}
	}
	return nil
}

// printReport writes the operator summary of one cleaned dataset.
func (p *printer) printReport(report *core.CleanReport, stats bool) {
	if report.Skipped() {
		msg := "no matching columns"
		if len(report.Messages) > 0 {
			msg = report.Messages[0]
		}
		p.line("[SKIP] %s: %s", report.CSVName, msg)
		return
	}

	p.line("[OK] %s: %d/%d rows kept (%.2f%%); output -> %s",
		report.CSVName, report.CleanedRows, report.FilteredRows, report.RetentionPercentage, report.Output())
	for _, m := range report.Messages {
		p.line("       %s", m)
	}
	if !stats {
		return
	}

	if len(report.RuleFailures) > 0 {
		ranked := core.RankFailures(report.RuleFailures)
		if p.tty {
			rows := make([][]string, len(ranked))
			for i, f := range ranked {
				rows[i] = []string{f.Key, fmt.Sprint(f.Count)}
			}
			p.table([]string{"Rule", "Failures"}, rows, []columnAlignment{alignLeft, alignRight})
		} else {
			p.line("       Rule failure counts:")
			for _, f := range ranked {
				p.line("         - %s: %d", f.Key, f.Count)
			}
		}
	}

	if len(report.AppliedStandardisations) > 0 {
		columns := sortedKeys(report.AppliedStandardisations)
		if p.tty {
			rows := make([][]string, len(columns))
			for i, col := range columns {
				rows[i] = []string{col, joinNames(report.AppliedStandardisations[col])}
			}
			p.table([]string{"Column", "Standardisation"}, rows, nil)
		} else {
			p.line("       Standardisation applied:")
			for _, col := range columns {
				p.line("         - %s: %s", col, joinNames(report.AppliedStandardisations[col]))
			}
		}
	}
}

// result writes the summary line(s) of one batch result.
func (p *printer) result(r batch.Result, stats bool) {
	switch r.Status() {
	case batch.StatusUnconfigured:
		p.line("[WARN] No rules defined for %s. Add a configuration entry to a schema file to enable cleaning.", r.Name)
	case batch.StatusFailed:
		p.line("[ERROR] %s: %v", r.Name, r.Err)
		if core.IsUserFacing(r.Err) {
			p.line("       %s", core.FormatUserError(r.Err))
		}
	default:
		p.printReport(r.Report, stats)
	}
}
