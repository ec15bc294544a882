package rules

import (
	"testing"

	"github.com/JonMunkholm/csvclean/internal/value"
)

func assertValue(t *testing.T, fn string, input, got, want value.Value) {
	t.Helper()
	if !got.Equal(want) || got.Kind() != want.Kind() {
		t.Errorf("%s(%s) = %s (%s), want %s (%s)",
			fn, input.Literal(), got.Literal(), got.Kind(), want.Literal(), want.Kind())
	}
}

func TestToBoolean(t *testing.T) {
	tests := []struct {
		name  string
		input value.Value
		want  value.Value
	}{
		{"french sentence", value.Text("Oui, vraiment"), value.Bool(true)},
		{"unknown passes", value.Text("maybe"), value.Text("maybe")},
		{"non", value.Text("Non"), value.Bool(false)},
		{"padded yes", value.Text("  YES "), value.Bool(true)},
		{"y", value.Text("y"), value.Bool(true)},
		{"zero", value.Text("0"), value.Bool(false)},
		{"int", value.Int(2), value.Bool(true)},
		{"float zero", value.Float(0), value.Bool(false)},
		{"bool", value.Bool(false), value.Bool(false)},
		{"null", value.Null, value.Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertValue(t, "ToBoolean", tt.input, ToBoolean(tt.input), tt.want)
		})
	}
}

func TestCaseFolding(t *testing.T) {
	assertValue(t, "ToLower", value.Text("ÉCOLE"), ToLower(value.Text("ÉCOLE")), value.Text("école"))
	assertValue(t, "ToUpper", value.Text("straße"), ToUpper(value.Text("straße")), value.Text("STRASSE"))

	list := value.List([]value.Value{value.Text("A"), value.Int(1)})
	assertValue(t, "ToLower", list, ToLower(list), value.List([]value.Value{value.Text("a"), value.Int(1)}))
	assertValue(t, "ToLower", value.Int(5), ToLower(value.Int(5)), value.Int(5))
}

func TestTrimAndToString(t *testing.T) {
	assertValue(t, "Trim", value.Text("  x "), Trim(value.Text("  x ")), value.Text("x"))
	assertValue(t, "ToString", value.Text(" x "), ToString(value.Text(" x ")), value.Text("x"))
	assertValue(t, "ToString", value.Int(7), ToString(value.Int(7)), value.Text("7"))
	assertValue(t, "ToString", value.Float(2), ToString(value.Float(2)), value.Text("2.0"))
	assertValue(t, "ToString", value.Bool(true), ToString(value.Bool(true)), value.Text("True"))
	assertValue(t, "ToString", value.Strings("a"), ToString(value.Strings("a")), value.Text("['a']"))
	assertValue(t, "ToString", value.Null, ToString(value.Null), value.Null)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input value.Value
		want  value.Value
	}{
		{"survey timestamp", value.Text("15/03/2024 10:22:05"), value.Text("2024-03-15")},
		{"single digit day", value.Text("5/3/2024 09:00:00"), value.Text("2024-03-05")},
		{"padded", value.Text(" 01/12/2023 23:59:59 "), value.Text("2023-12-01")},
		{"iso is not this layout", value.Text("2024-03-15"), value.Text("2024-03-15")},
		{"garbage", value.Text("yesterday"), value.Text("yesterday")},
		{"empty", value.Text(""), value.Text("")},
		{"number", value.Int(3), value.Int(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertValue(t, "ParseDate", tt.input, ParseDate(tt.input), tt.want)
		})
	}
}

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		name  string
		input value.Value
		want  value.Value
	}{
		{"hms", value.Text("1:02:03"), value.Int(3723)},
		{"ms", value.Text("03:15"), value.Int(195)},
		{"ms long minutes", value.Text("75:00"), value.Int(4500)},
		{"bad minutes", value.Text("1:75:00"), value.Text("1:75:00")},
		{"bad seconds", value.Text("3:99"), value.Text("3:99")},
		{"seconds text", value.Text("180"), value.Int(180)},
		{"fractional text", value.Text("180.7"), value.Int(180)},
		{"float", value.Float(12.9), value.Int(12)},
		{"garbage", value.Text("soon"), value.Text("soon")},
		{"mixed parts", value.Text("1:xx:00"), value.Text("1:xx:00")},
		{"null", value.Null, value.Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertValue(t, "NormalizeDuration", tt.input, NormalizeDuration(tt.input), tt.want)
		})
	}
}

func TestTrimEmoji(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"smiley", "Super 😀", "Super "},
		{"flag pair", "France 🇫🇷", "France "},
		{"dingbat with selector", "ok ✔️", "ok "},
		{"zero width joiner", "a\u200db", "ab"},
		{"accents kept", "été", "été"},
		{"plain", "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimEmoji(value.Text(tt.input))
			if s, _ := got.AsText(); s != tt.want {
				t.Errorf("TrimEmoji(%q) = %q, want %q", tt.input, s, tt.want)
			}
		})
	}

	if got := TrimEmoji(value.Int(1)); !got.Equal(value.Int(1)) {
		t.Errorf("TrimEmoji(1) = %s, want 1", got.Literal())
	}
}
