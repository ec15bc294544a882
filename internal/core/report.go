package core

// report.go persists the surviving rows and assembles the CleanReport.

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/schema"
	"github.com/JonMunkholm/csvclean/internal/value"
)

// SkipMessage is the only message of a dataset with no matching column.
const SkipMessage = "No columns matched the rule configuration; skipping export."

// OutputName returns the file name written for dataset name.
func OutputName(name string) string { return "clean_" + name }

// cellText renders a cell for the output file. Boolean columns are cast
// with truthiness, so a null cell is written as True.
func cellText(v value.Value, kind rules.Coercion) string {
	if kind == rules.CoerceBoolean {
		if v.Truthy() {
			return "True"
		}
		return "False"
	}
	return v.String()
}

// WriteFrame writes f as CSV to path. Data goes to a temporary file in the
// same directory first and is renamed into place once complete.
func WriteFrame(path string, f *Frame, kinds map[string]rules.Coercion) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(f.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(f.Columns))
	for r := range f.Len() {
		for c, column := range f.Columns {
			record[c] = cellText(f.Data[c][r], kinds[column])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish output: %w", err)
	}
	return nil
}

// MissingColumns returns the explicitly validated columns absent from the
// frame, sorted.
func MissingColumns(f *Frame, chains schema.Chains[rules.ValidationRule]) []string {
	missing := []string{}
	for _, column := range chains.Names() {
		if !f.Has(column) {
			missing = append(missing, column)
		}
	}
	sort.Strings(missing)
	return missing
}

func limitMessage(limit, preLimit int) string {
	return fmt.Sprintf("Processing limited to first %d rows (pre-limit rows: %d).", limit, preLimit)
}

func missingMessage(name string, missing []string) string {
	return fmt.Sprintf("Missing columns for %s: %s", name, strings.Join(missing, ", "))
}

func unknownMessage(u schema.UnknownRule) string {
	return fmt.Sprintf("Ignored unknown %s.", u)
}

func newReport(name string, f *Frame) *CleanReport {
	return &CleanReport{
		CSVName:                 name,
		OriginalRows:            f.OriginalRows,
		PreLimitRows:            f.PreLimitRows,
		RuleFailures:            map[string]int{},
		MissingColumns:          []string{},
		Messages:                []string{},
		AppliedStandardisations: map[string][]string{},
	}
}

// FailureCount is one rule_failures entry.
type FailureCount struct {
	Key   string
	Count int
}

// RankFailures orders failures by count descending, then by key.
func RankFailures(failures map[string]int) []FailureCount {
	out := make([]FailureCount, 0, len(failures))
	for k, n := range failures {
		out = append(out, FailureCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
