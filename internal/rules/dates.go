package rules

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/JonMunkholm/csvclean/internal/value"
)

// ParseTime reads a cell as an instant. Text is parsed flexibly (ISO,
// US month-first, RFC 1123 and the like); naive timestamps are taken as
// UTC. Integers are nanoseconds since the Unix epoch.
func ParseTime(v value.Value) (time.Time, bool) {
	switch v.Kind() {
	case value.KindText:
		s, _ := v.AsText()
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, false
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case value.KindInt:
		i, _ := v.AsInt()
		return time.Unix(0, i).UTC(), true
	case value.KindFloat:
		f, _ := v.AsFloat()
		ns, ok := TruncInt(f)
		if !ok {
			return time.Time{}, false
		}
		return time.Unix(0, ns).UTC(), true
	}
	return time.Time{}, false
}

// DateOnly formats a parseable cell as "YYYY-MM-DD". Anything else is Null.
func DateOnly(v value.Value) value.Value {
	t, ok := ParseTime(v)
	if !ok {
		return value.Null
	}
	return value.Text(t.Format(time.DateOnly))
}
