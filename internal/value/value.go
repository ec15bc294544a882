// Package value defines the cell model shared by every cleaning stage.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "unknown"
}

// Pair is one key/value entry of a Map value. Keys keep insertion order.
type Pair struct {
	Key   Value
	Value Value
}

// Value is a single cell. The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	list  []Value
	pairs []Pair
}

// Null is the missing marker.
var Null = Value{}

func Bool(b bool) Value   { return Value{kind: KindBool, b: b} }
func Int(i int64) Value   { return Value{kind: KindInt, i: i} }
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Float builds a float cell. NaN collapses to Null, since a NaN cell is
// indistinguishable from a missing one once written.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null
	}
	return Value{kind: KindFloat, f: f}
}

// List builds a list cell. A nil slice yields an empty list, not Null.
func List(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

func Map(pairs []Pair) Value {
	if pairs == nil {
		pairs = []Pair{}
	}
	return Value{kind: KindMap, pairs: pairs}
}

// Strings is a convenience constructor for a list of text cells.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, s := range items {
		out[i] = Text(s)
	}
	return List(out)
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) IsText() bool  { return v.kind == KindText }
func (v Value) IsList() bool  { return v.kind == KindList }
func (v Value) IsMap() bool   { return v.kind == KindMap }
func (v Value) IsBool() bool  { return v.kind == KindBool }
func (v Value) IsInt() bool   { return v.kind == KindInt }
func (v Value) IsFloat() bool { return v.kind == KindFloat }

// IsNumber reports whether v is an Int or a Float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsBool returns the boolean payload; ok is false for other kinds.
func (v Value) AsBool() (b bool, ok bool) { return v.b, v.kind == KindBool }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

func (v Value) AsMap() ([]Pair, bool) { return v.pairs, v.kind == KindMap }

// Number returns the numeric payload of Bool, Int and Float cells.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Get looks up a text key in a Map cell.
func (v Value) Get(key string) (Value, bool) {
	for _, p := range v.pairs {
		if s, ok := p.Key.AsText(); ok && s == key {
			return p.Value, true
		}
	}
	return Null, false
}

// Truthy mirrors truthiness of the dynamic model: Null is truthy because
// the missing marker is a NaN.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindText:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.pairs) > 0
	}
	return false
}

// Equal is structural equality. Null equals Null; an Int equals a Float
// holding the same number.
func (v Value) Equal(o Value) bool {
	if v.IsNumber() && o.IsNumber() {
		a, _ := v.Number()
		b, _ := o.Number()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindText:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		for i := range v.pairs {
			if !v.pairs[i].Key.Equal(o.pairs[i].Key) || !v.pairs[i].Value.Equal(o.pairs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Key returns a string usable as a map key such that a.Equal(b) implies
// a.Key() == b.Key().
func (v Value) Key() string {
	var b strings.Builder
	v.writeKey(&b)
	return b.String()
}

func (v Value) writeKey(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("n")
	case KindBool:
		if v.b {
			b.WriteString("b1")
		} else {
			b.WriteString("b0")
		}
	case KindInt:
		b.WriteString("d")
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<63 {
			b.WriteString("d")
			b.WriteString(strconv.FormatInt(int64(v.f), 10))
			return
		}
		b.WriteString("f")
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindText:
		b.WriteString("s")
		b.WriteString(strconv.Quote(v.s))
	case KindList:
		b.WriteString("[")
		for _, item := range v.list {
			item.writeKey(b)
			b.WriteString(",")
		}
		b.WriteString("]")
	case KindMap:
		b.WriteString("{")
		for _, p := range v.pairs {
			p.Key.writeKey(b)
			b.WriteString(":")
			p.Value.writeKey(b)
			b.WriteString(",")
		}
		b.WriteString("}")
	}
}

// String renders the cell as it is written to a cleaned CSV file. Null is
// the empty string and text is written verbatim; everything else uses the
// literal form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindText:
		return v.s
	}
	return v.Literal()
}

// Literal renders v in the literal syntax understood by ParseLiteral in
// the rules package: single-quoted strings, None/True/False, bracketed
// lists and braced dicts.
func (v Value) Literal() string {
	var b strings.Builder
	v.writeLiteral(&b)
	return b.String()
}

func (v Value) writeLiteral(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("None")
	case KindBool:
		if v.b {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString(FormatFloat(v.f))
	case KindText:
		b.WriteString(QuoteLiteral(v.s))
	case KindList:
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeLiteral(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, p := range v.pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			p.Key.writeLiteral(b)
			b.WriteString(": ")
			p.Value.writeLiteral(b)
		}
		b.WriteByte('}')
	}
}
