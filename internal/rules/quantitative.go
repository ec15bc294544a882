package rules

// quantitative.go maps survey answer labels to scores. The lookup file is
// a JSON object {question: {answer label: number}}. It is loaded once per
// path and shared read-only between workers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/JonMunkholm/csvclean/internal/value"
)

// ErrLookupUnavailable means the answer lookup table could not be loaded.
var ErrLookupUnavailable = errors.New("quantitative lookup unavailable")

// QuantitativeTable is immutable after loading.
type QuantitativeTable struct {
	Path      string
	Questions []string
	// index maps a normalised label to its score. When several questions
	// share a label the first question in file order wins.
	index map[string]value.Value
	count int
}

// Len returns the number of answer labels read, duplicates included.
func (t *QuantitativeTable) Len() int { return t.count }

// Lookup returns the score of a label, ignoring case and surrounding
// whitespace.
func (t *QuantitativeTable) Lookup(label string) (value.Value, bool) {
	v, ok := t.index[normalizeLabel(label)]
	return v, ok
}

func normalizeLabel(s string) string {
	return Lower(strings.TrimSpace(s))
}

// LoadQuantitative reads a lookup table from disk.
func LoadQuantitative(path string) (*QuantitativeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
	}
	defer f.Close()

	table, err := ParseQuantitative(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLookupUnavailable, path, err)
	}
	table.Path = path
	return table, nil
}

// ParseQuantitative decodes a lookup table, keeping question and answer
// order as written.
func ParseQuantitative(r io.Reader) (*QuantitativeTable, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	table := &QuantitativeTable{index: make(map[string]value.Value)}
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		question, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		table.Questions = append(table.Questions, question)

		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("question %q: %w", question, err)
		}
		for dec.More() {
			label, err := stringToken(dec)
			if err != nil {
				return nil, err
			}
			var raw any
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("question %q, answer %q: %w", question, label, err)
			}
			score := scoreValue(raw)
			table.count++
			key := normalizeLabel(label)
			if _, seen := table.index[key]; !seen {
				table.index[key] = score
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return table, nil
}

func scoreValue(raw any) value.Value {
	switch x := raw.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return value.Int(i)
		}
		if f, err := x.Float64(); err == nil {
			return value.Float(f)
		}
	case string:
		return value.Text(x)
	case bool:
		return value.Bool(x)
	}
	return value.Null
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}

var (
	quantitativeMu    sync.Mutex
	quantitativeCache = map[string]*QuantitativeTable{}
)

// Quantitative returns the table for path, loading it on first use.
// Failed loads are not cached.
func Quantitative(path string) (*QuantitativeTable, error) {
	quantitativeMu.Lock()
	defer quantitativeMu.Unlock()

	if t, ok := quantitativeCache[path]; ok {
		return t, nil
	}
	t, err := LoadQuantitative(path)
	if err != nil {
		return nil, err
	}
	quantitativeCache[path] = t
	return t, nil
}

// ConvertQuantitative maps an answer label to its score, or Null when the
// label is unknown. Non-text cells are matched on their string form.
func ConvertQuantitative(v value.Value, table *QuantitativeTable) value.Value {
	if v.IsNull() {
		return v
	}
	if score, ok := table.Lookup(v.String()); ok {
		return score
	}
	return value.Null
}
