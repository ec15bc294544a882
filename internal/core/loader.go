package core

// loader.go reads a CSV file into a Frame: header rows are flattened into
// single column names, renames and skip rows are applied, then the row
// limit.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvclean/internal/schema"
	"github.com/JonMunkholm/csvclean/internal/value"
)

var (
	// ErrNoHeader is returned when the input ends before its header rows.
	ErrNoHeader = errors.New("empty file: no header row")
	// ErrRaggedRow is returned for a data row wider than the header.
	ErrRaggedRow = errors.New("invalid csv: row has more fields than the header")
)

// naTokens are read as null cells.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func cell(raw string) value.Value {
	if _, ok := naTokens[raw]; ok {
		return value.Null
	}
	return value.Text(raw)
}

// LoadSpec is the reading part of a schema.
type LoadSpec struct {
	Header   schema.HeaderSpec
	SkipRows []int
	Rename   map[string]string
	// Limit keeps the first Limit rows after skipping; <= 0 keeps all.
	Limit int
}

// LoadSpecFor extracts the reading settings of s.
func LoadSpecFor(s *schema.Schema, limit int) LoadSpec {
	return LoadSpec{Header: s.Header, SkipRows: s.SkipRows, Rename: s.Rename, Limit: limit}
}

// LoadFile opens path and reads it with Load.
func LoadFile(path string, spec LoadSpec) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	frame, err := Load(f, spec)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return frame, nil
}

// Load reads CSV data from r.
func Load(r io.Reader, spec LoadSpec) (*Frame, error) {
	in, err := wrapInput(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := readHeader(reader, spec.Header)
	if err != nil {
		return nil, err
	}
	columns := renameColumns(dedupe(header), spec.Rename)

	data := make([][]value.Value, len(columns))
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if len(record) > len(columns) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w (line %d: %d fields, header has %d)", ErrRaggedRow, line, len(record), len(columns))
		}
		for c := range columns {
			v := value.Null
			if c < len(record) {
				v = cell(record[c])
			}
			data[c] = append(data[c], v)
		}
		rows++
	}

	frame := &Frame{Columns: columns, Data: data, OriginalRows: rows, Bytes: in.BytesRead(), rows: rows}
	frame.dropRows(spec.SkipRows)
	frame.PreLimitRows = frame.rows
	if spec.Limit > 0 && frame.rows > spec.Limit {
		frame.truncate(spec.Limit)
	}
	return frame, nil
}

// readHeader consumes physical rows up to the last header row and returns
// the flattened column names. Rows between header rows are discarded.
func readHeader(reader *csv.Reader, spec schema.HeaderSpec) ([]string, error) {
	lines := spec.Lines()
	last := slices.Max(lines)
	levels := make([][]string, 0, len(lines))
	width := 0
	for i := 0; i <= last; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, ErrNoHeader
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv header: %w", err)
		}
		if slices.Contains(lines, i) {
			levels = append(levels, slices.Clone(record))
			width = max(width, len(record))
		}
	}

	names := make([]string, width)
	for c := range width {
		if !spec.Multi() {
			names[c] = headerCell(levels[0], c, "Unnamed: "+strconv.Itoa(c))
			continue
		}
		parts := make([]string, len(levels))
		for l, level := range levels {
			parts[l] = headerCell(level, c, fmt.Sprintf("Unnamed: %d_level_%d", c, l))
		}
		names[c] = flatten(parts)
	}
	return names, nil
}

func headerCell(level []string, c int, filler string) string {
	if c >= len(level) || level[c] == "" {
		return filler
	}
	return level[c]
}

// flatten joins multi-row header fragments into one name, dropping the
// filler of the leading index column.
func flatten(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "nan" {
			kept = append(kept, p)
		}
	}
	name := strings.Trim(strings.Join(kept, "_"), "_")
	name = strings.ReplaceAll(name, "Unnamed: 0_", "")
	return strings.Trim(name, "_")
}

// dedupe suffixes repeated names with .1, .2, ...
func dedupe(names []string) []string {
	seen := make(map[string]int, len(names))
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	out := make([]string, len(names))
	for i, n := range names {
		count, dup := seen[n]
		if !dup {
			seen[n] = 1
			out[i] = n
			continue
		}
		candidate := n
		for {
			candidate = n + "." + strconv.Itoa(count)
			count++
			if !taken[candidate] {
				break
			}
		}
		seen[n] = count
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

func renameColumns(columns []string, rename map[string]string) []string {
	if len(rename) == 0 {
		return columns
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		if to, ok := rename[c]; ok {
			out[i] = to
		} else {
			out[i] = c
		}
	}
	return out
}

// dropRows removes rows by position; out-of-range positions are ignored.
func (f *Frame) dropRows(positions []int) {
	if len(positions) == 0 {
		return
	}
	drop := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p >= 0 && p < f.rows {
			drop[p] = true
		}
	}
	if len(drop) == 0 {
		return
	}
	for c, col := range f.Data {
		kept := col[:0]
		for r, v := range col {
			if !drop[r] {
				kept = append(kept, v)
			}
		}
		f.Data[c] = kept
	}
	f.rows -= len(drop)
}

func (f *Frame) truncate(n int) {
	for c := range f.Data {
		f.Data[c] = f.Data[c][:n]
	}
	f.rows = n
}

// Select returns a frame holding only the named columns, in frame order.
// Row counters carry over.
func (f *Frame) Select(keep func(column string) bool) *Frame {
	out := &Frame{
		OriginalRows: f.OriginalRows,
		PreLimitRows: f.PreLimitRows,
		Bytes:        f.Bytes,
		rows:         f.rows,
	}
	for i, c := range f.Columns {
		if keep(c) {
			out.Columns = append(out.Columns, c)
			out.Data = append(out.Data, f.Data[i])
		}
	}
	return out
}

// filterRows keeps the rows whose flag is set.
func (f *Frame) filterRows(keep []bool) {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	for c, col := range f.Data {
		kept := make([]value.Value, 0, n)
		for r, v := range col {
			if keep[r] {
				kept = append(kept, v)
			}
		}
		f.Data[c] = kept
	}
	f.rows = n
}
