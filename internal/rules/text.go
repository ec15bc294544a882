package rules

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/csvclean/internal/value"
)

// applyString runs fn on text cells and on the text items of list cells.
// Every other cell passes through.
func applyString(v value.Value, fn func(string) string) value.Value {
	if s, ok := v.AsText(); ok {
		return value.Text(fn(s))
	}
	items, ok := v.AsList()
	if !ok {
		return v
	}
	out := make([]value.Value, len(items))
	for i, item := range items {
		if s, ok := item.AsText(); ok {
			out[i] = value.Text(fn(s))
		} else {
			out[i] = item
		}
	}
	return value.List(out)
}

// Lower applies full Unicode lower-case mapping. A Caser is stateful, so
// each call builds its own.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Upper applies full Unicode upper-case mapping ("ß" becomes "SS").
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

func ToLower(v value.Value) value.Value { return applyString(v, Lower) }

func ToUpper(v value.Value) value.Value { return applyString(v, Upper) }

func Trim(v value.Value) value.Value { return applyString(v, strings.TrimSpace) }

// ToString strips text cells and renders every other non-null cell in its
// literal form.
func ToString(v value.Value) value.Value {
	switch {
	case v.IsNull():
		return v
	case v.IsText():
		s, _ := v.AsText()
		return value.Text(strings.TrimSpace(s))
	}
	return value.Text(strings.TrimSpace(v.Literal()))
}

var (
	trueWords  = map[string]bool{"true": true, "1": true, "yes": true, "y": true, "oui": true}
	falseWords = map[string]bool{"false": true, "0": true, "no": true, "n": true, "non": true}
)

// ToBoolean maps yes/no vocabularies (English and French) to booleans.
// Only the text before the first comma is considered, so "Oui, vraiment"
// is true. Unrecognised text passes through unchanged.
func ToBoolean(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindNull, value.KindBool:
		return v
	case value.KindInt, value.KindFloat:
		f, _ := v.Number()
		return value.Bool(f != 0)
	case value.KindText:
		s, _ := v.AsText()
		word := Lower(strings.TrimSpace(s))
		word, _, _ = strings.Cut(word, ",")
		switch {
		case trueWords[word]:
			return value.Bool(true)
		case falseWords[word]:
			return value.Bool(false)
		}
	}
	return v
}

// surveyTimestampLayout is the day-first timestamp of form exports.
const surveyTimestampLayout = "2/1/2006 15:04:05"

// ParseDate reformats "DD/MM/YYYY HH:MM:SS" text to "YYYY-MM-DD". Text in
// any other shape, and non-text cells, pass through unchanged.
func ParseDate(v value.Value) value.Value {
	s, ok := v.AsText()
	if !ok {
		return v
	}
	candidate := strings.TrimSpace(s)
	if candidate == "" {
		return v
	}
	t, err := time.Parse(surveyTimestampLayout, candidate)
	if err != nil {
		return v
	}
	return value.Text(t.Format(time.DateOnly))
}

// NormalizeDuration converts "H:MM:SS" and "MM:SS" text to a number of
// seconds and truncates numbers to integers. Out-of-range minutes or
// seconds leave the value unchanged.
func NormalizeDuration(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindBool, value.KindInt, value.KindFloat:
		f, _ := v.Number()
		if i, ok := TruncInt(f); ok {
			return value.Int(i)
		}
		return v
	case value.KindText:
	default:
		return v
	}

	s, _ := v.AsText()
	text := strings.TrimSpace(s)
	if text == "" {
		return v
	}
	parts := strings.Split(text, ":")

	switch {
	case len(parts) == 3 && allDigits(parts):
		h, m, sec := mustAtoi(parts[0]), mustAtoi(parts[1]), mustAtoi(parts[2])
		if m < 60 && sec < 60 {
			return value.Int(h*3600 + m*60 + sec)
		}
		return v
	case len(parts) == 2 && allDigits(parts):
		m, sec := mustAtoi(parts[0]), mustAtoi(parts[1])
		if sec < 60 {
			return value.Int(m*60 + sec)
		}
		return v
	}

	if f, ok := ParseFloat(text); ok {
		if i, ok := TruncInt(f); ok {
			return value.Int(i)
		}
	}
	return v
}

func mustAtoi(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return i
}

// emojiRanges lists the pictographic and invisible formatting code points
// removed by TrimEmoji.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F900, 0x1F9FF},
	{0x1FA70, 0x1FAFF},
	{0x1F100, 0x1F1FF},
	{0x1F7E0, 0x1F7FF},
	{0x2300, 0x23FF},
	{0x2600, 0x27BF},
	{0x1BE4, 0x1BE4},
	{0xFE0E, 0xFE0F},
	{0x200B, 0x200F},
	{0x2060, 0x206F},
}

func isEmoji(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// TrimEmoji removes emoji, pictographs, variation selectors, zero-width
// joiners and invisible formatting characters from text.
func TrimEmoji(v value.Value) value.Value {
	return applyString(v, func(s string) string {
		return strings.Map(func(r rune) rune {
			if isEmoji(r) {
				return -1
			}
			return r
		}, s)
	})
}
