package rules

// numeric.go converts loosely formatted numeric text. Grouping separators
// (spaces, narrow no-break spaces, underscores) are stripped, and a lone
// comma is read as either a thousands separator or a decimal mark.

import (
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvclean/internal/value"
)

// stripGrouping removes narrow no-break spaces, spaces and underscores.
var stripGrouping = strings.NewReplacer("\u202f", "", " ", "", "_", "")

// ToInt converts v to an integer when it represents one exactly.
// Anything that cannot be converted is returned unchanged.
func ToInt(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindNull, value.KindInt:
		return v
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			return value.Int(1)
		}
		return value.Int(0)
	case value.KindFloat:
		f, _ := v.AsFloat()
		if i, ok := exactInt(f); ok {
			return value.Int(i)
		}
		return v
	case value.KindText:
		s, _ := v.AsText()
		if i, ok := parseIntText(s); ok {
			return value.Int(i)
		}
	}
	return v
}

func parseIntText(s string) (int64, bool) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, false
	}
	sign, text := splitSign(text)
	cleaned := stripGrouping.Replace(text)
	if cleaned == "" {
		return 0, false
	}

	switch {
	case strings.Contains(cleaned, "."):
		f, ok := ParseFloat(sign + cleaned)
		if !ok {
			return 0, false
		}
		return exactInt(f)

	case strings.Contains(cleaned, ","):
		parts := strings.Split(cleaned, ",")
		for _, part := range parts {
			if !isDigits(part) {
				return 0, false
			}
		}
		if thousandsGroups(parts) {
			return atoi(sign + strings.Join(parts, ""))
		}
		f, ok := ParseFloat(sign + strings.Join(parts, "."))
		if !ok {
			return 0, false
		}
		return exactInt(f)
	}

	if !isDigits(cleaned) {
		return 0, false
	}
	return atoi(sign + cleaned)
}

// ToFloat converts v to a float. Comma handling: with both "," and "."
// present commas are grouping; with commas only, groups of exactly three
// digits after the first are grouping, otherwise a single comma is the
// decimal mark. Failures return v unchanged.
func ToFloat(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindNull, value.KindFloat:
		return v
	case value.KindBool, value.KindInt:
		f, _ := v.Number()
		return value.Float(f)
	case value.KindText:
		s, _ := v.AsText()
		text := strings.TrimSpace(s)
		if text == "" {
			return v
		}
		normalized, ok := normalizeDecimal(text)
		if !ok {
			return v
		}
		if f, ok := ParseFloat(normalized); ok {
			return value.Float(f)
		}
	}
	return v
}

func normalizeDecimal(text string) (string, bool) {
	sign, text := splitSign(text)
	cleaned := stripGrouping.Replace(text)
	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case hasComma:
		parts := strings.Split(cleaned, ",")
		switch {
		case thousandsGroups(parts) && allDigits(parts):
			cleaned = strings.Join(parts, "")
		case len(parts) == 2:
			cleaned = parts[0] + "." + parts[1]
		default:
			return "", false
		}
	}
	return sign + cleaned, true
}

// ParseFloat parses decimal text the permissive way: surrounding
// whitespace is ignored, underscores may separate digits, and nan/inf
// spellings are accepted. Hexadecimal forms are rejected.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	body := strings.TrimLeft(s, "+-")
	if len(body) > 1 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		return 0, false
	}
	if strings.Contains(s, "_") {
		if !validUnderscores(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, "_", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// TruncInt truncates a number toward zero; ok is false for values outside
// the int64 range.
func TruncInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < -(1<<63) || t >= 1<<63 {
		return 0, false
	}
	return int64(t), true
}

func exactInt(f float64) (int64, bool) {
	if f != math.Trunc(f) {
		return 0, false
	}
	return TruncInt(f)
}

func splitSign(text string) (string, string) {
	if text != "" && (text[0] == '+' || text[0] == '-') {
		return text[:1], text[1:]
	}
	return "", text
}

func thousandsGroups(parts []string) bool {
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts[1:] {
		if len(part) != 3 {
			return false
		}
	}
	return true
}

func allDigits(parts []string) bool {
	for _, part := range parts {
		if !isDigits(part) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoi(s string) (int64, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

func validUnderscores(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 {
			return false
		}
		prev, next := s[i-1], s[i+1]
		if prev < '0' || prev > '9' || next < '0' || next > '9' {
			return false
		}
	}
	return true
}
