package schema

// file.go reads schema documents. YAML and TOML decode into the same wire
// model, which is validated before rule names are resolved:
//
//	datasets:
//	  - name: tracks.csv
//	    header_rows: [0, 1]
//	    skip_rows: [0]
//	    rename_columns: {level_0_level_1: track_id}
//	    validation_rules:
//	      - column: track_id
//	        rules: [notNull, notNegative, int]
//	    standardisation_rules:
//	      - column: __all__
//	        rules: [trimSpaces]

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/csvclean/internal/rules"
)

// DefaultColumn is the column key that declares the default chain.
const DefaultColumn = "__all__"

// Format is a schema document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from a file extension. JSON documents are
// read as YAML.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: unsupported schema file extension %q", ErrInvalidSchema, filepath.Ext(path))
}

// Document is the wire model of a schema file.
type Document struct {
	Datasets []DatasetDoc `yaml:"datasets" toml:"datasets" validate:"required,min=1,unique=Name,dive"`
}

type DatasetDoc struct {
	Name                 string            `yaml:"name" toml:"name" validate:"required"`
	HeaderRows           any               `yaml:"header_rows" toml:"header_rows"`
	SkipRows             []int             `yaml:"skip_rows" toml:"skip_rows" validate:"dive,min=0"`
	RenameColumns        map[string]string `yaml:"rename_columns" toml:"rename_columns" validate:"dive,keys,required,endkeys,required"`
	ValidationRules      []ColumnRulesDoc  `yaml:"validation_rules" toml:"validation_rules" validate:"unique=Column,dive"`
	StandardisationRules []ColumnRulesDoc  `yaml:"standardisation_rules" toml:"standardisation_rules" validate:"unique=Column,dive"`
}

type ColumnRulesDoc struct {
	Column string   `yaml:"column" toml:"column" validate:"required"`
	Rules  []string `yaml:"rules" toml:"rules" validate:"dive,required"`
}

// LoadOptions controls rule name resolution.
type LoadOptions struct {
	// Strict rejects unknown rule names instead of ignoring them.
	Strict bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadFile reads every dataset schema from a YAML or TOML file.
func LoadFile(path string, opts LoadOptions) ([]*Schema, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	schemas, err := Parse(data, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, s := range schemas {
		s.Source = path
	}
	return schemas, nil
}

// Parse decodes, validates and resolves a schema document.
func Parse(data []byte, format Format, opts LoadOptions) ([]*Schema, error) {
	var doc Document
	if err := decode(data, format, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSchema, describeValidation(err))
	}

	schemas := make([]*Schema, 0, len(doc.Datasets))
	for _, d := range doc.Datasets {
		s, err := d.build(opts)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", d.Name, err)
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

func decode(data []byte, format Format, doc *Document) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(doc)
	}
	return fmt.Errorf("unknown format %q", format)
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", e.Namespace(), formatValidationError(e)))
	}
	return strings.Join(msgs, "; ")
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "unique":
		return "contains duplicates"
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

func (d DatasetDoc) build(opts LoadOptions) (*Schema, error) {
	header, err := headerSpec(d.HeaderRows)
	if err != nil {
		return nil, err
	}

	s := &Schema{
		Name:     d.Name,
		Header:   header,
		SkipRows: append([]int(nil), d.SkipRows...),
		Rename:   d.RenameColumns,
	}
	if s.Rename == nil {
		s.Rename = map[string]string{}
	}

	s.Validation, err = buildChains(d.ValidationRules, "validation", rules.LookupValidation, opts, &s.Unknown)
	if err != nil {
		return nil, err
	}
	s.Standardisation, err = buildChains(d.StandardisationRules, "standardisation", rules.LookupStandardisation, opts, &s.Unknown)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func buildChains[R any](
	docs []ColumnRulesDoc,
	stage string,
	lookup func(string) (R, bool),
	opts LoadOptions,
	unknown *[]UnknownRule,
) (Chains[R], error) {
	var chains Chains[R]
	for _, doc := range docs {
		resolved := make([]R, 0, len(doc.Rules))
		for _, name := range doc.Rules {
			r, ok := lookup(name)
			if !ok {
				if opts.Strict {
					return chains, fmt.Errorf("%w: %s rule %q on column %q", ErrUnknownRule, stage, name, doc.Column)
				}
				*unknown = append(*unknown, UnknownRule{Stage: stage, Column: doc.Column, Rule: name})
				continue
			}
			resolved = append(resolved, r)
		}

		if doc.Column == DefaultColumn {
			// An empty default list declares nothing.
			if len(doc.Rules) > 0 {
				chains.Default = resolved
			}
			continue
		}
		chains.Columns = append(chains.Columns, ColumnChain[R]{Column: doc.Column, Rules: resolved})
	}
	return chains, nil
}

// headerSpec accepts "infer", a single row number or a list of row numbers.
func headerSpec(raw any) (HeaderSpec, error) {
	switch x := raw.(type) {
	case nil:
		return HeaderSpec{}, nil
	case string:
		if x == "infer" || x == "" {
			return HeaderSpec{}, nil
		}
		return HeaderSpec{}, fmt.Errorf("%w: header_rows %q", ErrInvalidSchema, x)
	case []any:
		rows := make([]int, 0, len(x))
		for _, item := range x {
			n, err := headerRow(item)
			if err != nil {
				return HeaderSpec{}, err
			}
			if len(rows) > 0 && n <= rows[len(rows)-1] {
				return HeaderSpec{}, fmt.Errorf("%w: header_rows must be increasing", ErrInvalidSchema)
			}
			rows = append(rows, n)
		}
		return HeaderSpec{Rows: rows}, nil
	}
	n, err := headerRow(raw)
	if err != nil {
		return HeaderSpec{}, err
	}
	return HeaderSpec{Rows: []int{n}}, nil
}

func headerRow(raw any) (int, error) {
	var n int64
	switch x := raw.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case uint64:
		if x > math.MaxInt32 {
			return 0, fmt.Errorf("%w: header row %d out of range", ErrInvalidSchema, x)
		}
		n = int64(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: header row %v is not an integer", ErrInvalidSchema, x)
		}
		n = int64(x)
	default:
		return 0, fmt.Errorf("%w: header row %v is not an integer", ErrInvalidSchema, raw)
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: header row %d out of range", ErrInvalidSchema, n)
	}
	return int(n), nil
}
