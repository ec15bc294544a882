package rules

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/csvclean/internal/value"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  value.Value
	}{
		{"string list", "['a', 'b', 'c']", value.Strings("a", "b", "c")},
		{"double quotes", `["it's", "x"]`, value.Strings("it's", "x")},
		{"ints", "[21, 103]", value.List([]value.Value{value.Int(21), value.Int(103)})},
		{"negative float", "-1.5", value.Float(-1.5)},
		{"exponent", "1e3", value.Float(1000)},
		{"keywords", "[None, True, False]", value.List([]value.Value{value.Null, value.Bool(true), value.Bool(false)})},
		{"tuple", "(1, 2)", value.List([]value.Value{value.Int(1), value.Int(2)})},
		{"bare tuple", "1, 2", value.List([]value.Value{value.Int(1), value.Int(2)})},
		{"grouping", "(5)", value.Int(5)},
		{"single tuple", "(5,)", value.List([]value.Value{value.Int(5)})},
		{"empty list", "[]", value.List(nil)},
		{"trailing comma", "[1, 2,]", value.List([]value.Value{value.Int(1), value.Int(2)})},
		{"escapes", `'a\nb\'c'`, value.Text("a\nb'c")},
		{"unicode escape", `'caf\u00e9'`, value.Text("café")},
		{"raw string", `r'a\nb'`, value.Text(`a\nb`)},
		{"concatenation", `'ab' "cd"`, value.Text("abcd")},
		{"hex", "0x1F", value.Int(31)},
		{"underscores", "1_000", value.Int(1000)},
		{"leading space", "  [1]", value.List([]value.Value{value.Int(1)})},
		{"set", "{1, 2}", value.List([]value.Value{value.Int(1), value.Int(2)})},
		{
			"dict list",
			"[{'genre_id': 21, 'title': 'Rock'}]",
			value.List([]value.Value{value.Map([]value.Pair{
				{Key: value.Text("genre_id"), Value: value.Int(21)},
				{Key: value.Text("title"), Value: value.Text("Rock")},
			})}),
		},
		{"empty dict", "{}", value.Map(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLiteral(tt.input)
			if err != nil {
				t.Fatalf("ParseLiteral(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) || got.Kind() != tt.want.Kind() {
				t.Errorf("ParseLiteral(%q) = %s, want %s", tt.input, got.Literal(), tt.want.Literal())
			}
		})
	}
}

func TestParseLiteral_Errors(t *testing.T) {
	inputs := []string{
		"",
		"rock",
		"rock, pop / jazz",
		"[1, 2",
		"'unterminated",
		"null",
		"[true]",
		"012",
		"1j",
		"-'a'",
		"[1] [2]",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseLiteral(input)
			if err == nil {
				t.Fatalf("ParseLiteral(%q) expected error", input)
			}
			if !errors.Is(err, ErrMalformedLiteral) {
				t.Errorf("error %v should wrap ErrMalformedLiteral", err)
			}
		})
	}
}

func TestParseLiteral_RoundTrip(t *testing.T) {
	values := []value.Value{
		value.Strings("rock", "it's", `say "hi"`),
		value.List([]value.Value{value.Int(-3), value.Float(2.5), value.Null, value.Bool(true)}),
		value.Map([]value.Pair{{Key: value.Text("name"), Value: value.Text("jazz\tfusion")}}),
	}

	for _, v := range values {
		t.Run(v.Literal(), func(t *testing.T) {
			got, err := ParseLiteral(v.Literal())
			if err != nil {
				t.Fatalf("ParseLiteral(%q) error = %v", v.Literal(), err)
			}
			if !got.Equal(v) {
				t.Errorf("round trip = %s, want %s", got.Literal(), v.Literal())
			}
		})
	}
}
