package rules

// literal.go parses the literal notation that list-like cells arrive in,
// for example "['rock', 'pop']", "[{'genre_id': 21}]" or "(1, 2)".
//
// Supported: quoted strings (single, double, triple, r/u/b prefixes and
// adjacent concatenation), ints (decimal, 0x, 0o, 0b, underscores), floats,
// None/True/False, lists, tuples, sets, dicts and unary +/- on numbers.
// Anything else, such as bare words, is a parse error.

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvclean/internal/value"
)

// ErrMalformedLiteral is returned for text that is not a literal.
var ErrMalformedLiteral = errors.New("malformed literal")

// ParseLiteral parses text as a single literal. A top-level comma-separated
// sequence without brackets parses as a tuple, which becomes a list.
func ParseLiteral(text string) (value.Value, error) {
	p := &literalParser{src: strings.TrimLeft(text, " \t")}
	v, err := p.parseTopLevel()
	if err != nil {
		return value.Null, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return value.Null, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrMalformedLiteral, p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		case '\\':
			// explicit line continuation
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n' {
				p.pos += 2
				continue
			}
			return
		default:
			return
		}
	}
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) parseTopLevel() (value.Value, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return value.Null, p.errorf("empty input")
	}
	first, err := p.parseExpr()
	if err != nil {
		return value.Null, err
	}
	p.skipSpace()
	if p.peek() != ',' {
		return first, nil
	}

	items := []value.Value{first}
	for p.peek() == ',' {
		p.pos++
		p.skipSpace()
		if p.pos >= len(p.src) {
			break
		}
		v, err := p.parseExpr()
		if err != nil {
			return value.Null, err
		}
		items = append(items, v)
		p.skipSpace()
	}
	return value.List(items), nil
}

func (p *literalParser) parseExpr() (value.Value, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case c == '+' || c == '-':
		p.pos++
		operand, err := p.parseExpr()
		if err != nil {
			return value.Null, err
		}
		return negate(operand, c == '-', p)
	case c == '[':
		p.pos++
		items, _, err := p.parseSequence(']')
		if err != nil {
			return value.Null, err
		}
		return value.List(items), nil
	case c == '(':
		p.pos++
		items, sawComma, err := p.parseSequence(')')
		if err != nil {
			return value.Null, err
		}
		if len(items) == 1 && !sawComma {
			return items[0], nil
		}
		return value.List(items), nil
	case c == '{':
		p.pos++
		return p.parseBrace()
	case c == '\'' || c == '"':
		return p.parseStrings()
	case c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseName()
	case c == 0:
		return value.Null, p.errorf("unexpected end of input")
	}
	return value.Null, p.errorf("unexpected character %q", c)
}

func negate(v value.Value, minus bool, p *literalParser) (value.Value, error) {
	switch v.Kind() {
	case value.KindInt:
		i, _ := v.AsInt()
		if minus {
			return value.Int(-i), nil
		}
		return v, nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		if minus {
			return value.Float(-f), nil
		}
		return v, nil
	}
	return value.Null, p.errorf("unary operator on %s", v.Kind())
}

// parseSequence reads comma-separated expressions up to the closing byte.
func (p *literalParser) parseSequence(closing byte) ([]value.Value, bool, error) {
	items := []value.Value{}
	sawComma := false
	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			return items, sawComma, nil
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			sawComma = true
			p.pos++
		case closing:
			p.pos++
			return items, sawComma, nil
		default:
			return nil, false, p.errorf("expected ',' or %q", closing)
		}
	}
}

// parseBrace reads a dict or a set. Sets become lists.
func (p *literalParser) parseBrace() (value.Value, error) {
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return value.Map(nil), nil
	}

	first, err := p.parseExpr()
	if err != nil {
		return value.Null, err
	}
	p.skipSpace()
	if p.peek() != ':' {
		items := []value.Value{first}
		for {
			switch p.peek() {
			case '}':
				p.pos++
				return value.List(items), nil
			case ',':
				p.pos++
				p.skipSpace()
				if p.peek() == '}' {
					continue
				}
				v, err := p.parseExpr()
				if err != nil {
					return value.Null, err
				}
				items = append(items, v)
				p.skipSpace()
			default:
				return value.Null, p.errorf("expected ',' or '}'")
			}
		}
	}

	var pairs []value.Pair
	key := first
	for {
		p.pos++ // ':'
		val, err := p.parseExpr()
		if err != nil {
			return value.Null, err
		}
		pairs = setPair(pairs, key, val)
		p.skipSpace()
		switch p.peek() {
		case '}':
			p.pos++
			return value.Map(pairs), nil
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				return value.Map(pairs), nil
			}
			key, err = p.parseExpr()
			if err != nil {
				return value.Null, err
			}
			p.skipSpace()
			if p.peek() != ':' {
				return value.Null, p.errorf("expected ':'")
			}
		default:
			return value.Null, p.errorf("expected ',' or '}'")
		}
	}
}

// setPair keeps the first position of a repeated key and the last value.
func setPair(pairs []value.Pair, key, val value.Value) []value.Pair {
	for i := range pairs {
		if pairs[i].Key.Equal(key) {
			pairs[i].Value = val
			return pairs
		}
	}
	return append(pairs, value.Pair{Key: key, Value: val})
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// parseName reads None/True/False or a string with a prefix.
func (p *literalParser) parseName() (value.Value, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]

	if q := p.peek(); q == '\'' || q == '"' {
		switch strings.ToLower(name) {
		case "r", "u", "b", "br", "rb":
			p.pos = start
			return p.parseStrings()
		}
	}

	switch name {
	case "None":
		return value.Null, nil
	case "True":
		return value.Bool(true), nil
	case "False":
		return value.Bool(false), nil
	}
	p.pos = start
	return value.Null, p.errorf("name %q is not a literal", name)
}

// parseStrings reads one or more adjacent string literals and concatenates
// them.
func (p *literalParser) parseStrings() (value.Value, error) {
	var b strings.Builder
	count := 0
	for {
		p.skipSpace()
		start := p.pos
		raw := false
		for p.pos < len(p.src) && strings.IndexByte("rRuUbB", p.src[p.pos]) >= 0 {
			if c := p.src[p.pos]; c == 'r' || c == 'R' {
				raw = true
			}
			p.pos++
		}
		q := p.peek()
		if q != '\'' && q != '"' {
			p.pos = start
			break
		}
		s, err := p.parseQuoted(raw)
		if err != nil {
			return value.Null, err
		}
		b.WriteString(s)
		count++
	}
	if count == 0 {
		return value.Null, p.errorf("expected string")
	}
	return value.Text(b.String()), nil
}

func (p *literalParser) parseQuoted(raw bool) (string, error) {
	q := p.src[p.pos]
	delim := string(q)
	if strings.HasPrefix(p.src[p.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	p.pos += len(delim)
	triple := len(delim) == 3

	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		if strings.HasPrefix(p.src[p.pos:], delim) {
			p.pos += len(delim)
			return b.String(), nil
		}
		c := p.src[p.pos]
		if c == '\n' && !triple {
			return "", p.errorf("newline in string")
		}
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
			continue
		}
		if p.pos+1 >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		if raw {
			b.WriteByte('\\')
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
			continue
		}
		if err := p.parseEscape(&b); err != nil {
			return "", err
		}
	}
}

func (p *literalParser) parseEscape(b *strings.Builder) error {
	e := p.src[p.pos+1]
	p.pos += 2
	switch e {
	case '\n':
	case '\\':
		b.WriteByte('\\')
	case '\'':
		b.WriteByte('\'')
	case '"':
		b.WriteByte('"')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'v':
		b.WriteByte('\v')
	case 'x':
		return p.hexEscape(b, 2)
	case 'u':
		return p.hexEscape(b, 4)
	case 'U':
		return p.hexEscape(b, 8)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := int(e - '0')
		for i := 0; i < 2 && p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '7'; i++ {
			n = n*8 + int(p.src[p.pos]-'0')
			p.pos++
		}
		b.WriteRune(rune(n))
	default:
		b.WriteByte('\\')
		p.pos--
	}
	return nil
}

func (p *literalParser) hexEscape(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("truncated escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil || n > utf8.MaxRune {
		return p.errorf("invalid escape")
	}
	p.pos += digits
	b.WriteRune(rune(n))
	return nil
}

func (p *literalParser) parseNumber() (value.Value, error) {
	start := p.pos
	if strings.HasPrefix(p.src[p.pos:], "0x") || strings.HasPrefix(p.src[p.pos:], "0X") ||
		strings.HasPrefix(p.src[p.pos:], "0o") || strings.HasPrefix(p.src[p.pos:], "0O") ||
		strings.HasPrefix(p.src[p.pos:], "0b") || strings.HasPrefix(p.src[p.pos:], "0B") {
		p.pos += 2
		for p.pos < len(p.src) && (isHexDigit(p.src[p.pos]) || p.src[p.pos] == '_') {
			p.pos++
		}
		return p.intValue(p.src[start:p.pos], 0)
	}

	isFloat := false
	p.digits()
	if p.peek() == '.' {
		isFloat = true
		p.pos++
		p.digits()
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		save := p.pos
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		if d := p.peek(); d >= '0' && d <= '9' {
			isFloat = true
			p.digits()
		} else {
			p.pos = save
		}
	}
	if c := p.peek(); c == 'j' || c == 'J' {
		return value.Null, p.errorf("complex numbers are not supported")
	}
	if p.pos < len(p.src) && isIdentStart(p.src[p.pos]) {
		return value.Null, p.errorf("invalid number")
	}

	text := p.src[start:p.pos]
	if text == "." {
		return value.Null, p.errorf("invalid number")
	}
	if isFloat {
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return value.Null, p.errorf("invalid float %q", text)
		}
		return value.Float(f), nil
	}
	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0_") != "" {
		return value.Null, p.errorf("leading zeros in %q", text)
	}
	return p.intValue(text, 0)
}

func (p *literalParser) digits() {
	for p.pos < len(p.src) && ((p.src[p.pos] >= '0' && p.src[p.pos] <= '9') || p.src[p.pos] == '_') {
		p.pos++
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// intValue parses an integer literal. Values beyond int64 degrade to float.
func (p *literalParser) intValue(text string, base int) (value.Value, error) {
	i, err := strconv.ParseInt(text, base, 64)
	if err == nil {
		return value.Int(i), nil
	}
	n, ok := new(big.Int).SetString(text, base)
	if !ok {
		return value.Null, p.errorf("invalid integer %q", text)
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	if math.IsInf(f, 0) {
		return value.Null, p.errorf("integer %q out of range", text)
	}
	return value.Float(f), nil
}
