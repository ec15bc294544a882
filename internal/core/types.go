package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/value"
)

// Frame is a loaded dataset held column-major: Data[c][r] is the cell of
// column Columns[c] at row r.
type Frame struct {
	Columns []string
	Data    [][]value.Value

	// OriginalRows counts data rows as read, before skip rows and limit.
	OriginalRows int
	// PreLimitRows counts rows after skip rows, before the limit.
	PreLimitRows int
	// Bytes is the size of the decoded input.
	Bytes int64

	rows int
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Index returns the position of a column, or -1.
func (f *Frame) Index(column string) int {
	for i, c := range f.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Has reports whether the frame has a column.
func (f *Frame) Has(column string) bool { return f.Index(column) >= 0 }

// Column returns the cells of a column, or nil.
func (f *Frame) Column(column string) []value.Value {
	if i := f.Index(column); i >= 0 {
		return f.Data[i]
	}
	return nil
}

// CleanReport summarises one dataset run.
type CleanReport struct {
	CSVName string `json:"csv_name"`
	// OutputPath is nil when the dataset was skipped.
	OutputPath              *string             `json:"output_path"`
	OriginalRows            int                 `json:"original_rows"`
	PreLimitRows            int                 `json:"pre_limit_rows"`
	FilteredRows            int                 `json:"filtered_rows"`
	CleanedRows             int                 `json:"cleaned_rows"`
	RemovedRows             int                 `json:"removed_rows"`
	RetentionPercentage     float64             `json:"retention_percentage"`
	RuleFailures            map[string]int      `json:"rule_failures"`
	MissingColumns          []string            `json:"missing_columns"`
	Messages                []string            `json:"messages"`
	AppliedStandardisations map[string][]string `json:"applied_standardisations"`
	UnknownRules            int                 `json:"unknown_rules"`
}

// Skipped reports whether no output was written because no configured
// column matched the input.
func (r *CleanReport) Skipped() bool { return r.OutputPath == nil }

// Output returns the output path, or "" for a skipped dataset.
func (r *CleanReport) Output() string {
	if r.OutputPath == nil {
		return ""
	}
	return *r.OutputPath
}

// Retention computes cleaned/filtered as a percentage, 0 for no rows.
func Retention(cleaned, filtered int) float64 {
	if filtered <= 0 {
		return 0
	}
	return float64(cleaned) / float64(filtered) * 100
}

// Options configures one Clean call.
type Options struct {
	// OutputDir receives clean_<name>. Created if missing.
	OutputDir string
	// Limit keeps only the first Limit rows after skip rows. Zero or
	// negative disables the limit.
	Limit int
	// Quantitative loads the answer lookup table on first use.
	Quantitative func() (*rules.QuantitativeTable, error)
	// Now is the clock for beforeNow/afterNow. Defaults to time.Now.
	Now func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) logger(ctx context.Context) *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.FromContext(ctx)
}

func (o Options) limited() bool { return o.Limit > 0 }
