package rules

import (
	"testing"

	"github.com/JonMunkholm/csvclean/internal/value"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name  string
		input value.Value
		want  value.Value
	}{
		{"thousands comma", value.Text("1,234"), value.Int(1234)},
		{"multiple thousands", value.Text("1,234,567"), value.Int(1234567)},
		{"decimal comma integral", value.Text("1,0"), value.Int(1)},
		{"decimal comma fractional", value.Text("1,5"), value.Text("1,5")},
		{"not a number", value.Text("abc"), value.Text("abc")},
		{"plain", value.Text(" 42 "), value.Int(42)},
		{"negative", value.Text("-7"), value.Int(-7)},
		{"spaces", value.Text("1 234"), value.Int(1234)},
		{"narrow nbsp", value.Text("1\u202f234"), value.Int(1234)},
		{"integral decimal", value.Text("3.0"), value.Int(3)},
		{"fractional decimal", value.Text("3.5"), value.Text("3.5")},
		{"empty", value.Text(""), value.Text("")},
		{"trailing comma", value.Text("1,"), value.Text("1,")},
		{"exponent text", value.Text("1e3"), value.Text("1e3")},
		{"bool", value.Bool(true), value.Int(1)},
		{"integral float", value.Float(4), value.Int(4)},
		{"fractional float", value.Float(4.5), value.Float(4.5)},
		{"null", value.Null, value.Null},
		{"list", value.Strings("1"), value.Strings("1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToInt(tt.input)
			if !got.Equal(tt.want) || got.Kind() != tt.want.Kind() {
				t.Errorf("ToInt(%s) = %s (%s), want %s (%s)",
					tt.input.Literal(), got.Literal(), got.Kind(), tt.want.Literal(), tt.want.Kind())
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name  string
		input value.Value
		want  value.Value
	}{
		{"decimal comma", value.Text("1,5"), value.Float(1.5)},
		{"thousands comma", value.Text("1,234"), value.Float(1234)},
		{"both separators", value.Text("1,234.5"), value.Float(1234.5)},
		{"plain", value.Text("2.25"), value.Float(2.25)},
		{"signed", value.Text("-0,5"), value.Float(-0.5)},
		{"ambiguous commas", value.Text("1,2,3"), value.Text("1,2,3")},
		{"not a number", value.Text("abc"), value.Text("abc")},
		{"blank", value.Text("  "), value.Text("  ")},
		{"int", value.Int(3), value.Float(3)},
		{"null", value.Null, value.Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToFloat(tt.input)
			if !got.Equal(tt.want) || got.Kind() != tt.want.Kind() {
				t.Errorf("ToFloat(%s) = %s (%s), want %s (%s)",
					tt.input.Literal(), got.Literal(), got.Kind(), tt.want.Literal(), tt.want.Kind())
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"1.5", 1.5, true},
		{" 2 ", 2, true},
		{"1_000.5", 1000.5, true},
		{"1__0", 0, false},
		{"_1", 0, false},
		{"0x10", 0, false},
		{"1e-3", 0.001, true},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFloat(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseFloat(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncInt(t *testing.T) {
	if got, ok := TruncInt(-2.9); !ok || got != -2 {
		t.Errorf("TruncInt(-2.9) = %d, %v; want -2, true", got, ok)
	}
	if _, ok := TruncInt(1e300); ok {
		t.Error("TruncInt(1e300) should be out of range")
	}
}
