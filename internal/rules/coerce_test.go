package rules

import (
	"testing"

	"github.com/JonMunkholm/csvclean/internal/value"
)

func TestCoercionFor(t *testing.T) {
	tests := []struct {
		name  string
		chain []ValidationRule
		want  Coercion
	}{
		{"int beats string", []ValidationRule{IsString, IsInt}, CoerceInt},
		{"double", []ValidationRule{NotNull, IsDouble}, CoerceFloat},
		{"float beats date", []ValidationRule{IsDate, IsFloat}, CoerceFloat},
		{"date beats boolean", []ValidationRule{IsBoolean, IsDate}, CoerceDate},
		{"boolean beats string", []ValidationRule{IsString, IsBoolean}, CoerceBoolean},
		{"string", []ValidationRule{NotNull, IsString}, CoerceString},
		{"none", []ValidationRule{NotNull, NotNegative}, CoerceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoercionFor(tt.chain); got != tt.want {
				t.Errorf("CoercionFor = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCoercion_Apply(t *testing.T) {
	tests := []struct {
		name string
		c    Coercion
		in   value.Value
		want value.Value
	}{
		{"int from text", CoerceInt, value.Text("12.9"), value.Int(12)},
		{"int negative truncates", CoerceInt, value.Text("-2.5"), value.Int(-2)},
		{"int failure is null", CoerceInt, value.Text("1,234"), value.Null},
		{"int from list is null", CoerceInt, value.Strings("1"), value.Null},
		{"int from bool", CoerceInt, value.Bool(true), value.Int(1)},
		{"float", CoerceFloat, value.Text("2"), value.Float(2)},
		{"float failure is null", CoerceFloat, value.Text("two"), value.Null},
		{"date iso", CoerceDate, value.Text("2024-03-15 10:00:00"), value.Text("2024-03-15")},
		{"date us", CoerceDate, value.Text("03/15/2024"), value.Text("2024-03-15")},
		{"date failure is null", CoerceDate, value.Text("whenever"), value.Null},
		{"boolean text", CoerceBoolean, value.Text("Yes"), value.Bool(true)},
		{"boolean unpadded only", CoerceBoolean, value.Text(" yes"), value.Bool(false)},
		{"boolean number", CoerceBoolean, value.Int(0), value.Bool(false)},
		{"string list json", CoerceString, value.Strings("é"), value.Text(`["\u00e9"]`)},
		{"string int", CoerceString, value.Int(3), value.Text("3")},
		{"string bool", CoerceString, value.Bool(true), value.Text("True")},
		{"string text untouched", CoerceString, value.Text(" x "), value.Text(" x ")},
		{"null untouched", CoerceInt, value.Null, value.Null},
		{"none", CoerceNone, value.Text("x"), value.Text("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.c.Apply(tt.in)
			if !got.Equal(tt.want) || got.Kind() != tt.want.Kind() {
				t.Errorf("%s.Apply(%s) = %s, want %s", tt.c, tt.in.Literal(), got.Literal(), tt.want.Literal())
			}
		})
	}
}
