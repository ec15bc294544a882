package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/schema"
)

func parseSchema(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	schemas, err := schema.Parse([]byte(doc), schema.FormatYAML, schema.LoadOptions{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	if len(schemas) != 1 {
		t.Fatalf("got %d schemas, want 1", len(schemas))
	}
	return schemas[0]
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readOutput(t *testing.T, r *CleanReport) string {
	t.Helper()
	if r.OutputPath == nil {
		t.Fatal("report has no output path")
	}
	data, err := os.ReadFile(*r.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func checkInvariants(t *testing.T, r *CleanReport) {
	t.Helper()
	if r.CleanedRows > r.FilteredRows || r.FilteredRows > r.OriginalRows {
		t.Errorf("row counts out of order: cleaned=%d filtered=%d original=%d", r.CleanedRows, r.FilteredRows, r.OriginalRows)
	}
	if r.RemovedRows != r.FilteredRows-r.CleanedRows {
		t.Errorf("RemovedRows = %d, want %d", r.RemovedRows, r.FilteredRows-r.CleanedRows)
	}
	if got := Retention(r.CleanedRows, r.FilteredRows); r.RetentionPercentage != got {
		t.Errorf("RetentionPercentage = %v, want %v", r.RetentionPercentage, got)
	}
	for key, n := range r.RuleFailures {
		if n <= 0 {
			t.Errorf("rule_failures[%q] = %d, want > 0", key, n)
		}
	}
}

const peopleSchema = `
datasets:
  - name: people.csv
    validation_rules:
      - column: age
        rules: [notNull, notNegative, int]
      - column: liked
        rules: [boolean]
`

// ---- End-to-end Tests ----

func TestCleanAgeLiked(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "people.csv", "age,liked\n30,true\n-5,false\n41,yes\n")
	s := parseSchema(t, peopleSchema)

	report, err := Clean(context.Background(), path, s, Options{OutputDir: filepath.Join(dir, "out")})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	checkInvariants(t, report)

	if report.CleanedRows != 2 {
		t.Errorf("CleanedRows = %d, want 2", report.CleanedRows)
	}
	if want := map[string]int{"age:notNegative": 1}; !reflect.DeepEqual(report.RuleFailures, want) {
		t.Errorf("RuleFailures = %v, want %v", report.RuleFailures, want)
	}
	if got, want := readOutput(t, report), "age,liked\n30,True\n41,True\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if got, want := *report.OutputPath, filepath.Join(dir, "out", "clean_people.csv"); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
	if len(report.Messages) != 0 {
		t.Errorf("Messages = %v, want none", report.Messages)
	}
}

func TestCleanIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "people.csv", "age,liked\n30,true\n,no\n7.9,\n")
	s := parseSchema(t, peopleSchema)
	opts := Options{OutputDir: dir}

	first, err := Clean(context.Background(), path, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	a := readOutput(t, first)
	second, err := Clean(context.Background(), path, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	b := readOutput(t, second)
	if !bytes.Equal([]byte(a), []byte(b)) {
		t.Errorf("second run differs:\n%s\nvs\n%s", a, b)
	}
	// 7.9 truncates to 7; the empty liked cell persists as True.
	if want := "age,liked\n30,True\n7,True\n"; a != want {
		t.Errorf("output = %q, want %q", a, want)
	}
}

// ---- Validation Order Tests ----

func TestCleanShortCircuit(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "ab.csv", "a,b\n-1,0\n1,0\n2,3\n")
	s := parseSchema(t, `
datasets:
  - name: ab.csv
    validation_rules:
      - column: a
        rules: [notNull, notNegative]
      - column: b
        rules: [positiveNumber]
`)
	report, err := Clean(context.Background(), path, s, Options{OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"a:notNegative": 1, "b:positiveNumber": 1}
	if !reflect.DeepEqual(report.RuleFailures, want) {
		t.Errorf("RuleFailures = %v, want %v", report.RuleFailures, want)
	}
	if report.CleanedRows != 1 {
		t.Errorf("CleanedRows = %d, want 1", report.CleanedRows)
	}
}

func TestCleanUnique(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "ids.csv", "id\n1\n1\n2\n3\n")
	s := parseSchema(t, `
datasets:
  - name: ids.csv
    validation_rules:
      - column: id
        rules: [unique, int]
`)
	report, err := Clean(context.Background(), path, s, Options{OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if report.RuleFailures["id:unique"] != 2 {
		t.Errorf("id:unique failures = %d, want 2", report.RuleFailures["id:unique"])
	}
	if got := readOutput(t, report); got != "id\n2\n3\n" {
		t.Errorf("output = %q", got)
	}
}

func TestCleanDefaultChain(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "d.csv", "name,city,extra\nann,Oslo,x\nbob,,y\n,Rome,z\n")
	s := parseSchema(t, `
datasets:
  - name: d.csv
    validation_rules:
      - column: __all__
        rules: [notNull]
      - column: name
        rules: [string]
    standardisation_rules:
      - column: __all__
        rules: [toUpperCase]
`)
	report, err := Clean(context.Background(), path, s, Options{OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	// name has its own chain, so its empty cell is not rejected.
	want := map[string]int{"city:notNull": 1}
	if !reflect.DeepEqual(report.RuleFailures, want) {
		t.Errorf("RuleFailures = %v, want %v", report.RuleFailures, want)
	}
	if got := readOutput(t, report); got != "name,city,extra\nANN,OSLO,X\n,ROME,Z\n" {
		t.Errorf("output = %q", got)
	}
	if got := report.AppliedStandardisations["extra"]; !reflect.DeepEqual(got, []string{"toUpperCase"}) {
		t.Errorf("applied[extra] = %v", got)
	}
}

// ---- Report Tests ----

func TestCleanSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "other.csv", "a,b\n1,2\n3,4\n5,6\n")
	s := parseSchema(t, `
datasets:
  - name: other.csv
    validation_rules:
      - column: y
        rules: [notNull]
      - column: x
        rules: [int]
`)
	out := filepath.Join(dir, "out")
	report, err := Clean(context.Background(), path, s, Options{OutputDir: out})
	if err != nil {
		t.Fatal(err)
	}
	checkInvariants(t, report)
	if !report.Skipped() {
		t.Fatal("expected skipped report")
	}
	if want := []string{SkipMessage}; !reflect.DeepEqual(report.Messages, want) {
		t.Errorf("Messages = %v, want %v", report.Messages, want)
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(report.MissingColumns, want) {
		t.Errorf("MissingColumns = %v, want %v", report.MissingColumns, want)
	}
	if report.FilteredRows != 3 || report.RemovedRows != 3 || report.RetentionPercentage != 0 {
		t.Errorf("counts = %+v", report)
	}
	if _, err := os.Stat(filepath.Join(out, "clean_other.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("skipped dataset wrote a file: %v", err)
	}
}

func TestCleanMessages(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "people.csv", "age,liked\n1,yes\n2,no\n3,yes\n")
	s := parseSchema(t, `
datasets:
  - name: people.csv
    validation_rules:
      - column: age
        rules: [int, isEven]
      - column: height
        rules: [float]
`)
	report, err := Clean(context.Background(), path, s, Options{OutputDir: dir, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	checkInvariants(t, report)
	want := []string{
		"Processing limited to first 2 rows (pre-limit rows: 3).",
		"Missing columns for people.csv: height",
		`Ignored unknown validation rule "isEven" on column "age".`,
	}
	if !reflect.DeepEqual(report.Messages, want) {
		t.Errorf("Messages = %q, want %q", report.Messages, want)
	}
	if report.OriginalRows != 3 || report.PreLimitRows != 3 || report.FilteredRows != 2 {
		t.Errorf("counts: original=%d prelimit=%d filtered=%d", report.OriginalRows, report.PreLimitRows, report.FilteredRows)
	}
	if report.UnknownRules != 1 {
		t.Errorf("UnknownRules = %d, want 1", report.UnknownRules)
	}
	// liked has no chain and no default, so it is dropped from the output.
	if got := readOutput(t, report); got != "age\n1\n2\n" {
		t.Errorf("output = %q", got)
	}
}

func TestCleanEmptyInput(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "people.csv", "age,liked\n")
	report, err := Clean(context.Background(), path, parseSchema(t, peopleSchema), Options{OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	checkInvariants(t, report)
	if report.RetentionPercentage != 0 {
		t.Errorf("RetentionPercentage = %v, want 0", report.RetentionPercentage)
	}
	if got := readOutput(t, report); got != "age,liked\n" {
		t.Errorf("output = %q", got)
	}
}

// ---- Failure Tests ----

func TestCleanLookupUnavailable(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "answers.csv", "q1\nOften\n")
	s := parseSchema(t, `
datasets:
  - name: answers.csv
    validation_rules:
      - column: q1
        rules: [int]
    standardisation_rules:
      - column: q1
        rules: [convertToQuantitative]
`)
	_, err := Clean(context.Background(), path, s, Options{OutputDir: dir})
	if !errors.Is(err, rules.ErrLookupUnavailable) {
		t.Fatalf("Clean() error = %v, want ErrLookupUnavailable", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "clean_answers.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Error("failed dataset wrote a file")
	}
}

func TestCleanQuantitative(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "answers.csv", "q1\nOften\n never \nSometimes\n")
	table, err := rules.ParseQuantitative(strings.NewReader(`{"How often?": {"Never": 0, "Often": 2}}`))
	if err != nil {
		t.Fatal(err)
	}
	s := parseSchema(t, `
datasets:
  - name: answers.csv
    validation_rules:
      - column: q1
        rules: [notNull, int]
    standardisation_rules:
      - column: q1
        rules: [convertToQuantitative]
`)
	opts := Options{
		OutputDir:    dir,
		Quantitative: func() (*rules.QuantitativeTable, error) { return table, nil },
	}
	report, err := Clean(context.Background(), path, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := readOutput(t, report); got != "q1\n2\n0\n" {
		t.Errorf("output = %q", got)
	}
	if report.RuleFailures["q1:notNull"] != 1 {
		t.Errorf("RuleFailures = %v", report.RuleFailures)
	}
}

func TestCleanMissingInput(t *testing.T) {
	_, err := Clean(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), parseSchema(t, peopleSchema), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Clean() error = %v, want ErrNotExist", err)
	}
}

func TestCleanCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "people.csv", "age,liked\n1,yes\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Clean(ctx, path, parseSchema(t, peopleSchema), Options{OutputDir: dir}); !errors.Is(err, context.Canceled) {
		t.Errorf("Clean() error = %v, want context.Canceled", err)
	}
}

func TestRetention(t *testing.T) {
	tests := []struct {
		cleaned, filtered int
		want              float64
	}{
		{0, 0, 0},
		{3, 3, 100},
		{1, 4, 25},
		{2, 3, 2.0 / 3.0 * 100},
	}
	for _, tt := range tests {
		if got := Retention(tt.cleaned, tt.filtered); got != tt.want {
			t.Errorf("Retention(%d, %d) = %v, want %v", tt.cleaned, tt.filtered, got, tt.want)
		}
	}
}
