package core

// validation.go decides which rows survive. Columns are checked in the
// order the schema declares them (default-chain columns follow in frame
// order) and each chain runs left to right; the first failing rule rejects
// the row and is the only one counted.

import (
	"fmt"
	"slices"
	"time"

	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/schema"
	"github.com/JonMunkholm/csvclean/internal/value"
)

// ValidationError is one failed rule on one cell.
type ValidationError struct {
	Field string // Column name
	Rule  rules.ValidationRule
	Value value.Value
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s failed for %s", e.Field, e.Rule, e.Value.Literal())
}

// Key is the rule_failures tally key, "column:rule".
func (e ValidationError) Key() string {
	return e.Field + ":" + e.Rule.String()
}

type columnCheck struct {
	name  string
	cells []value.Value
	chain []rules.ValidationRule
	env   rules.CheckEnv
}

// RowValidator checks frame rows against validation chains.
type RowValidator struct {
	checks []columnCheck
}

// NewRowValidator prepares the checks for f. Duplicate vectors for unique
// are computed once per column here.
func NewRowValidator(f *Frame, chains schema.Chains[rules.ValidationRule], now func() time.Time) *RowValidator {
	v := &RowValidator{}
	add := func(column string, chain []rules.ValidationRule) {
		i := f.Index(column)
		if i < 0 || len(chain) == 0 {
			return
		}
		check := columnCheck{name: column, cells: f.Data[i], chain: chain, env: rules.CheckEnv{Now: now}}
		if slices.Contains(chain, rules.Unique) {
			check.env.Duplicates = duplicates(check.cells)
		}
		v.checks = append(v.checks, check)
	}

	for _, cc := range chains.Columns {
		add(cc.Column, cc.Rules)
	}
	if chains.Default != nil {
		for _, column := range f.Columns {
			if _, explicit := chains.Explicit(column); !explicit {
				add(column, chains.Default)
			}
		}
	}
	return v
}

// duplicates flags every occurrence of a value that appears more than once.
func duplicates(cells []value.Value) []bool {
	counts := make(map[string]int, len(cells))
	keys := make([]string, len(cells))
	for r, v := range cells {
		keys[r] = v.Key()
		counts[keys[r]]++
	}
	out := make([]bool, len(cells))
	for r, k := range keys {
		out[r] = counts[k] > 1
	}
	return out
}

// ValidateRow returns every failing rule of row r.
func (v *RowValidator) ValidateRow(r int) []ValidationError {
	var errs []ValidationError
	for i := range v.checks {
		c := &v.checks[i]
		for _, rule := range c.chain {
			if !rule.Check(c.cells[r], r, &c.env) {
				errs = append(errs, ValidationError{Field: c.name, Rule: rule, Value: c.cells[r]})
			}
		}
	}
	return errs
}

// ValidateRowFirst returns the first failing rule of row r.
func (v *RowValidator) ValidateRowFirst(r int) (ValidationError, bool) {
	for i := range v.checks {
		c := &v.checks[i]
		for _, rule := range c.chain {
			if !rule.Check(c.cells[r], r, &c.env) {
				return ValidationError{Field: c.name, Rule: rule, Value: c.cells[r]}, false
			}
		}
	}
	return ValidationError{}, true
}

// Validate checks all rows and returns the keep mask and the failure tally.
func (v *RowValidator) Validate(rows int) ([]bool, map[string]int) {
	keep := make([]bool, rows)
	failures := make(map[string]int)
	for r := range rows {
		if fail, ok := v.ValidateRowFirst(r); !ok {
			failures[fail.Key()]++
			continue
		}
		keep[r] = true
	}
	return keep, failures
}
