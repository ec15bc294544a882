package rules

import (
	"encoding/json"
	"math"
	"time"

	"github.com/JonMunkholm/csvclean/internal/value"
)

// CheckEnv carries per-column context for predicates.
type CheckEnv struct {
	// Now is sampled on every beforeNow/afterNow evaluation.
	Now func() time.Time
	// Duplicates flags, by row position, values that occur more than once
	// in the column. Nil disables the unique rule.
	Duplicates []bool
}

func (e *CheckEnv) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

// Check reports whether v at row position row satisfies the rule. Type
// tags and range checks accept Null; only notNull and isTrue reject it.
func (r ValidationRule) Check(v value.Value, row int, env *CheckEnv) bool {
	switch r {
	case NotNull:
		return !v.IsNull()
	case IsTrue:
		if v.IsNull() {
			return false
		}
		return truthOf(v)
	case Unique:
		if env == nil || row < 0 || row >= len(env.Duplicates) {
			return true
		}
		return !env.Duplicates[row]
	}

	if v.IsNull() {
		return true
	}

	switch r {
	case NotNegative:
		f, ok := floatOf(v)
		return ok && f >= 0
	case PositiveNumber:
		f, ok := floatOf(v)
		return ok && f > 0
	case IsLowerCase:
		s, ok := v.AsText()
		return ok && s == Lower(s)
	case IsUpperCase:
		s, ok := v.AsText()
		return ok && s == Upper(s)
	case BeforeNow:
		t, ok := ParseTime(v)
		return ok && t.Before(env.now())
	case AfterNow:
		t, ok := ParseTime(v)
		return ok && t.After(env.now())
	case IsInt:
		f, ok := floatOf(v)
		if !ok {
			return false
		}
		return f == math.Trunc(f) && !math.IsInf(f, 0)
	case IsFloat, IsDouble:
		_, ok := floatOf(v)
		return ok
	case IsString:
		return v.IsText()
	case IsDate:
		_, ok := ParseTime(v)
		return ok
	case IsBoolean:
		return v.IsBool()
	case IsArray:
		if v.IsList() {
			return true
		}
		s, ok := v.AsText()
		return ok && isJSONList(s)
	}
	return true
}

func jsonArray(text string) bool {
	var items []json.RawMessage
	return json.Unmarshal([]byte(text), &items) == nil
}
