// Package schema describes how each dataset is read and cleaned: header
// layout, rows to drop, column renames and the per-column rule chains.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvclean/internal/rules"
)

var (
	// ErrUnknownDataset is returned when no schema is registered for a file.
	ErrUnknownDataset = errors.New("no schema for dataset")
	// ErrUnknownRule is returned in strict mode for unrecognised rule names.
	ErrUnknownRule = errors.New("unknown rule")
	// ErrInvalidSchema wraps structural problems in a schema document.
	ErrInvalidSchema = errors.New("invalid schema")
)

// HeaderSpec lists the zero-based physical rows that form the header.
// Rows before the last header row that are not listed are discarded.
// An empty spec means the first row is the header.
type HeaderSpec struct {
	Rows []int
}

// Lines returns the header rows, defaulting to the first row.
func (h HeaderSpec) Lines() []int {
	if len(h.Rows) == 0 {
		return []int{0}
	}
	return h.Rows
}

// Multi reports whether the header spans several rows.
func (h HeaderSpec) Multi() bool { return len(h.Rows) > 1 }

func (h HeaderSpec) String() string {
	if len(h.Rows) == 0 {
		return "infer"
	}
	parts := make([]string, len(h.Rows))
	for i, r := range h.Rows {
		parts[i] = fmt.Sprint(r)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ColumnChain is an ordered rule chain bound to one column.
type ColumnChain[R any] struct {
	Column string
	Rules  []R
}

// Chains holds the explicit per-column chains in declaration order and an
// optional default chain for every column without one.
type Chains[R any] struct {
	Columns []ColumnChain[R]
	Default []R
}

// Explicit returns the chain declared for column.
func (c Chains[R]) Explicit(column string) ([]R, bool) {
	for _, cc := range c.Columns {
		if cc.Column == column {
			return cc.Rules, true
		}
	}
	return nil, false
}

// For returns the effective chain of column: its explicit chain, else the
// default chain. ok is false when neither applies.
func (c Chains[R]) For(column string) ([]R, bool) {
	if r, ok := c.Explicit(column); ok {
		return r, true
	}
	if c.Default != nil {
		return c.Default, true
	}
	return nil, false
}

// Names returns the explicitly configured columns in declaration order.
func (c Chains[R]) Names() []string {
	out := make([]string, len(c.Columns))
	for i, cc := range c.Columns {
		out[i] = cc.Column
	}
	return out
}

// UnknownRule records a rule name that did not resolve and is ignored.
type UnknownRule struct {
	Stage  string // "validation" or "standardisation"
	Column string
	Rule   string
}

func (u UnknownRule) String() string {
	return fmt.Sprintf("%s rule %q on column %q", u.Stage, u.Rule, u.Column)
}

// Schema is the cleaning configuration of one dataset, keyed by file name.
type Schema struct {
	Name            string
	Header          HeaderSpec
	SkipRows        []int
	Rename          map[string]string
	Validation      Chains[rules.ValidationRule]
	Standardisation Chains[rules.StandardisationRule]
	Unknown         []UnknownRule
	// Source is where the schema came from: "builtin" or a file path.
	Source string
}
