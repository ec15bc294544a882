package rules

import (
	"fmt"

	"github.com/JonMunkholm/csvclean/internal/value"
)

// Env supplies shared resources to transforms.
type Env struct {
	// Quantitative returns the answer lookup table. It is only called when
	// a convertToQuantitative rule meets a non-null cell.
	Quantitative func() (*QuantitativeTable, error)
}

func (e *Env) table() (*QuantitativeTable, error) {
	if e == nil || e.Quantitative == nil {
		return nil, ErrLookupUnavailable
	}
	return e.Quantitative()
}

// Apply transforms one cell. Transforms never fail on bad data: input
// that cannot be converted is returned unchanged. The only error is an
// unavailable lookup table.
func (r StandardisationRule) Apply(v value.Value, env *Env) (value.Value, error) {
	switch r {
	case ToLowerCase:
		return ToLower(v), nil
	case ToUpperCase:
		return ToUpper(v), nil
	case TrimSpaces:
		return Trim(v), nil
	case ParseDateRule:
		return ParseDate(v), nil
	case NormalizeDurationRule:
		return NormalizeDuration(v), nil
	case ExtractGenreIdsRule:
		return ExtractGenreIds(v), nil
	case NormalizeTagsRule:
		return NormalizeTags(v), nil
	case NormalizeBoolean, ToBooleanRule:
		return ToBoolean(v), nil
	case ToArrayRule:
		return ToArray(v), nil
	case ToIntRule:
		return ToInt(v), nil
	case ToFloatRule, ToDouble:
		return ToFloat(v), nil
	case ToStringRule:
		return ToString(v), nil
	case TrimEmojiRule:
		return TrimEmoji(v), nil
	case ConvertToQuantitative:
		if v.IsNull() {
			return v, nil
		}
		table, err := env.table()
		if err != nil {
			return v, err
		}
		return ConvertQuantitative(v, table), nil
	}
	return v, fmt.Errorf("standardisation rule %d has no implementation", r)
}
