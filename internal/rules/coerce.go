package rules

import (
	"strings"

	"github.com/JonMunkholm/csvclean/internal/value"
)

// Coercion is the single type conversion applied to a column before
// validation, chosen from the column's validation chain.
type Coercion uint8

const (
	CoerceNone Coercion = iota
	CoerceInt
	CoerceFloat
	CoerceDate
	CoerceBoolean
	CoerceString
)

func (c Coercion) String() string {
	switch c {
	case CoerceInt:
		return "int"
	case CoerceFloat:
		return "float"
	case CoerceDate:
		return "date"
	case CoerceBoolean:
		return "boolean"
	case CoerceString:
		return "string"
	}
	return "none"
}

// CoercionFor picks the coercion for a chain by fixed priority:
// int, double, float, date, boolean, string. Only the first match applies.
func CoercionFor(chain []ValidationRule) Coercion {
	has := func(want ValidationRule) bool {
		for _, r := range chain {
			if r == want {
				return true
			}
		}
		return false
	}
	switch {
	case has(IsInt):
		return CoerceInt
	case has(IsDouble), has(IsFloat):
		return CoerceFloat
	case has(IsDate):
		return CoerceDate
	case has(IsBoolean):
		return CoerceBoolean
	case has(IsString):
		return CoerceString
	}
	return CoerceNone
}

// Apply converts one cell. Unlike the standardisation transforms, a
// failed int, float or date conversion yields Null rather than the input.
func (c Coercion) Apply(v value.Value) value.Value {
	if v.IsNull() {
		return v
	}
	switch c {
	case CoerceInt:
		f, ok := floatOf(v)
		if !ok {
			return value.Null
		}
		i, ok := TruncInt(f)
		if !ok {
			return value.Null
		}
		return value.Int(i)
	case CoerceFloat:
		f, ok := floatOf(v)
		if !ok {
			return value.Null
		}
		return value.Float(f)
	case CoerceDate:
		return DateOnly(v)
	case CoerceBoolean:
		return value.Bool(truthOf(v))
	case CoerceString:
		switch v.Kind() {
		case value.KindText:
			return v
		case value.KindList, value.KindMap:
			return value.Text(v.JSON())
		}
		return value.Text(v.Literal())
	}
	return v
}

// floatOf is the plain numeric reading of a cell: numbers and booleans
// convert directly, text must parse as a float.
func floatOf(v value.Value) (float64, bool) {
	if f, ok := v.Number(); ok {
		return f, true
	}
	if s, ok := v.AsText(); ok {
		return ParseFloat(s)
	}
	return 0, false
}

// truthOf reads a cell as a boolean: text is true for "true", "1" and
// "yes" (case-insensitive, not trimmed), other cells by truthiness.
func truthOf(v value.Value) bool {
	if b, ok := v.AsBool(); ok {
		return b
	}
	if s, ok := v.AsText(); ok {
		switch Lower(s) {
		case "true", "1", "yes":
			return true
		}
		return false
	}
	return v.Truthy()
}

// isJSONList reports whether text decodes as a JSON array.
func isJSONList(s string) bool {
	text := strings.TrimSpace(s)
	if text == "" || text[0] != '[' {
		return false
	}
	return jsonArray(text)
}
