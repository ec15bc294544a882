package rules

import (
	"strings"

	"github.com/JonMunkholm/csvclean/internal/value"
)

// literalSpelling maps JSON-style keywords onto literal keywords for a
// second parse attempt. The replacement is textual and also touches
// quoted content.
var literalSpelling = strings.NewReplacer("null", "None", "true", "True", "false", "False")

// parseSequence parses list-like text. ok is false when the text is not a
// list or tuple literal, even after keyword respelling.
func parseSequence(text string) ([]value.Value, bool) {
	parsed, err := ParseLiteral(text)
	if err != nil || parsed.IsNull() {
		parsed, err = ParseLiteral(literalSpelling.Replace(text))
		if err != nil {
			return nil, false
		}
	}
	items, ok := parsed.AsList()
	return items, ok
}

// coerceSequence returns the items of a list cell or of list-like text.
// Blank text is an empty sequence; anything else reports false.
func coerceSequence(v value.Value) ([]value.Value, bool) {
	if items, ok := v.AsList(); ok {
		return items, true
	}
	s, ok := v.AsText()
	if !ok {
		return nil, false
	}
	text := strings.TrimSpace(s)
	if text == "" {
		return []value.Value{}, true
	}
	return parseSequence(text)
}

// ToArray turns a cell into a list. Text is parsed as a literal list
// first; failing that it is split on commas and slashes. Items are reduced
// to scalars and nulls are dropped. Null stays null and lists are returned
// as they are.
func ToArray(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindNull, value.KindList:
		return v
	case value.KindText:
	default:
		return normalizeItems([]value.Value{v})
	}

	s, _ := v.AsText()
	text := strings.TrimSpace(s)
	if text == "" {
		return value.List(nil)
	}
	if items, ok := parseSequence(text); ok {
		return normalizeItems(items)
	}

	var items []value.Value
	for _, part := range strings.Split(strings.ReplaceAll(text, "/", ","), ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, value.Text(part))
		}
	}
	return normalizeItems(items)
}

func normalizeItems(items []value.Value) value.Value {
	out := make([]value.Value, 0, len(items))
	for _, item := range items {
		if n := normalizeScalar(item); !n.IsNull() {
			out = append(out, n)
		}
	}
	return value.List(out)
}

// normalizeScalar reduces an item to null, bool, int, float or text.
// Integral floats become ints; blank text becomes null.
func normalizeScalar(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindNull, value.KindBool, value.KindInt:
		return v
	case value.KindFloat:
		f, _ := v.AsFloat()
		if i, ok := exactInt(f); ok {
			return value.Int(i)
		}
		return v
	case value.KindText:
		s, _ := v.AsText()
		if s = strings.TrimSpace(s); s == "" {
			return value.Null
		}
		return value.Text(s)
	}
	s := strings.TrimSpace(v.Literal())
	if s == "" {
		return value.Null
	}
	return value.Text(s)
}

// ExtractGenreIds collects integer ids from a list of ids or of
// {"genre_id": n} records. Unparseable input yields an empty list.
func ExtractGenreIds(v value.Value) value.Value {
	if v.IsNull() {
		return v
	}
	items, ok := coerceSequence(v)
	if !ok {
		return value.List(nil)
	}

	ids := []value.Value{}
	for _, item := range items {
		candidate := item
		switch item.Kind() {
		case value.KindMap:
			candidate, ok = item.Get("genre_id")
			if !ok {
				continue
			}
		case value.KindText, value.KindInt, value.KindBool:
		default:
			continue
		}
		if id, ok := intOf(candidate); ok {
			ids = append(ids, value.Int(id))
		}
	}
	return value.List(ids)
}

// intOf is the strict integer conversion used for ids: numbers truncate,
// text must be a plain (optionally signed) integer.
func intOf(v value.Value) (int64, bool) {
	switch v.Kind() {
	case value.KindBool, value.KindInt, value.KindFloat:
		f, _ := v.Number()
		if i, ok := v.AsInt(); ok {
			return i, true
		}
		return TruncInt(f)
	case value.KindText:
		s, _ := v.AsText()
		s = strings.TrimSpace(s)
		sign, body := splitSign(s)
		if body == "" || !validUnderscores(body) {
			return 0, false
		}
		body = strings.ReplaceAll(body, "_", "")
		if !isDigits(body) {
			return 0, false
		}
		return atoi(sign + body)
	}
	return 0, false
}

// NormalizeTags reduces a tag list to trimmed, non-empty strings. Record
// items contribute their "name", "tag" or "value" field.
func NormalizeTags(v value.Value) value.Value {
	if v.IsNull() {
		return v
	}
	items, ok := coerceSequence(v)
	if !ok {
		return value.List(nil)
	}

	tags := []value.Value{}
	for _, item := range items {
		switch item.Kind() {
		case value.KindText, value.KindInt, value.KindFloat, value.KindBool:
			if s := strings.TrimSpace(item.String()); s != "" {
				tags = append(tags, value.Text(s))
			}
		case value.KindMap:
			s, ok := firstTruthy(item, "name", "tag", "value").AsText()
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, value.Text(s))
			}
		}
	}
	return value.List(tags)
}

func firstTruthy(record value.Value, keys ...string) value.Value {
	var last value.Value
	for _, key := range keys {
		v, ok := record.Get(key)
		if !ok || v.IsNull() {
			last = value.Null
			continue
		}
		if v.Truthy() {
			return v
		}
		last = v
	}
	return last
}
