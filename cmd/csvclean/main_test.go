package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cliSchemas = `
datasets:
  - name: people.csv
    validation_rules:
      - column: age
        rules: [notNull, notNegative, int]
      - column: liked
        rules: [boolean]
    standardisation_rules:
      - column: liked
        rules: [trimSpaces, toLowerCase]
`

type cliEnv struct {
	base    string
	dataDir string
	outDir  string
	schema  string
}

func setupCLI(t *testing.T, files map[string]string) *cliEnv {
	t.Helper()
	base := t.TempDir()
	env := &cliEnv{
		base:    base,
		dataDir: filepath.Join(base, "raw"),
		outDir:  filepath.Join(base, "clean"),
		schema:  filepath.Join(base, "schemas.yaml"),
	}
	if err := os.MkdirAll(env.dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(env.dataDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(env.schema, []byte(cliSchemas), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CSVCLEAN_DATA_DIR", env.dataDir)
	t.Setenv("CSVCLEAN_OUTPUT_DIR", env.outDir)
	t.Setenv("CSVCLEAN_SCHEMA_FILE", env.schema)
	t.Setenv("HISTORY_DRIVER", "sqlite")
	t.Setenv("HISTORY_SQLITE_PATH", filepath.Join(base, "history.db"))
	t.Setenv("LOG_LEVEL", "warn")
	return env
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-env-file"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func exitCode(err error) int {
	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if err != nil {
		return -1
	}
	return 0
}

// ---- Clean Command Tests ----

func TestCleanCommandStats(t *testing.T) {
	env := setupCLI(t, map[string]string{
		"people.csv": "age,liked\n30, TRUE\n-5,false\n41,yes\n",
	})

	out, err := runCLI(t, "clean", "--stats")
	if err != nil {
		t.Fatalf("clean error = %v\n%s", err, out)
	}

	want := "[OK] people.csv: 2/3 rows kept (66.67%); output -> " + filepath.Join(env.outDir, "clean_people.csv")
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
	for _, s := range []string{"Rule failure counts:", "- age:notNegative: 1", "Standardisation applied:", "- liked: trimSpaces, toLowerCase"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}

	data, err := os.ReadFile(filepath.Join(env.outDir, "clean_people.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "age,liked\n30,True\n41,True\n" {
		t.Errorf("output file = %q", data)
	}
}

func TestCleanCommandStatuses(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		args     []string
		want     []string
		wantCode int
	}{
		{
			name:  "unconfigured dataset",
			files: map[string]string{"other.csv": "a\n1\n"},
			args:  []string{"clean"},
			want:  []string{"[WARN] No rules defined for other.csv."},
		},
		{
			name:  "skipped dataset",
			files: map[string]string{"people.csv": "x\n1\n"},
			args:  []string{"clean"},
			want:  []string{"[SKIP] people.csv: No columns matched the rule configuration; skipping export."},
		},
		{
			name:     "failed dataset",
			files:    map[string]string{"people.csv": "age,liked\n1,2,3\n"},
			args:     []string{"clean"},
			want:     []string{"[ERROR] people.csv:", "FILE002"},
			wantCode: 1,
		},
		{
			name:  "named files",
			files: map[string]string{"people.csv": "age\n1\n", "notes.txt": "x"},
			args:  []string{"clean", "--csv", "missing.csv,notes.txt"},
			want: []string{
				`[WARN] Skipping "missing.csv": file not found under`,
				"[WARN] Skipping notes.txt: not a CSV file.",
				"[WARN] No CSV files matched the provided criteria.",
			},
		},
		{
			name:     "missing data dir",
			args:     []string{"clean", "--data-dir", "does-not-exist"},
			want:     []string{"[ERROR] Data directory", "does not exist."},
			wantCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLI(t, tt.files)
			out, err := runCLI(t, tt.args...)
			if got := exitCode(err); got != tt.wantCode {
				t.Errorf("exit code = %d (%v), want %d", got, err, tt.wantCode)
			}
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestCleanCommandLimit(t *testing.T) {
	setupCLI(t, map[string]string{"people.csv": "age,liked\n1,yes\n2,yes\n3,yes\n"})

	out, err := runCLI(t, "clean", "--limit", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2/2 rows kept") {
		t.Errorf("output = %s", out)
	}
}

// ---- Other Command Tests ----

func TestHistoryCommand(t *testing.T) {
	setupCLI(t, map[string]string{"people.csv": "age,liked\n1,yes\n"})

	out, err := runCLI(t, "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("empty history = %q", out)
	}

	if _, err := runCLI(t, "clean"); err != nil {
		t.Fatal(err)
	}
	out, err = runCLI(t, "history", "people.csv")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "people.csv") || !strings.Contains(out, "ok") || !strings.Contains(out, "1/1 (100.00%)") {
		t.Errorf("history = %q", out)
	}
}

func TestRulesCommand(t *testing.T) {
	setupCLI(t, nil)

	out, err := runCLI(t, "rules")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"Validation rules:", "  notNull", "Standardisation rules:", "  toArray"} {
		if !strings.Contains(out, s) {
			t.Errorf("rules output missing %q", s)
		}
	}

	out, err = runCLI(t, "rules", "--datasets")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "people.csv") || !strings.Contains(out, "age, liked") {
		t.Errorf("datasets output = %s", out)
	}
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"Rule", "Failures"}, [][]string{{"age:int", "3"}, {"short"}}, []columnAlignment{alignLeft, alignRight})
	for _, s := range []string{"Rule", "Failures", "age:int", "3", "short"} {
		if !strings.Contains(got, s) {
			t.Errorf("table missing %q:\n%s", s, got)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("renderTable with no headers should be empty")
	}
}
