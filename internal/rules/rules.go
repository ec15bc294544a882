// Package rules holds the two closed rule vocabularies of the cleaning
// engine: validation predicates and standardisation transforms.
//
// Rule names are resolved to enum values once, when a schema is parsed.
// Per-cell dispatch is an exhaustive switch over the enum, never a map.
package rules

import "sort"

// ValidationRule is a predicate over a cell deciding row survival. The
// type tags (Int, Float, Double, Date, Boolean, String) also drive coercion.
type ValidationRule uint8

const (
	NotNull ValidationRule = iota + 1
	NotNegative
	PositiveNumber
	IsLowerCase
	IsUpperCase
	BeforeNow
	AfterNow
	IsInt
	IsString
	IsFloat
	IsDouble
	IsBoolean
	IsArray
	IsDate
	Unique
	IsTrue
)

var validationNames = map[ValidationRule]string{
	NotNull:        "notNull",
	NotNegative:    "notNegative",
	PositiveNumber: "positiveNumber",
	IsLowerCase:    "toLowerCase",
	IsUpperCase:    "toUpperCase",
	BeforeNow:      "beforeNow",
	AfterNow:       "afterNow",
	IsInt:          "int",
	IsString:       "string",
	IsFloat:        "float",
	IsDouble:       "double",
	IsBoolean:      "boolean",
	IsArray:        "array",
	IsDate:         "date",
	Unique:         "unique",
	IsTrue:         "isTrue",
}

var validationByName = invert(validationNames)

func (r ValidationRule) String() string {
	if name, ok := validationNames[r]; ok {
		return name
	}
	return "unknown"
}

// LookupValidation resolves a rule name. Unknown names report false and
// must be treated as a no-op by the caller.
func LookupValidation(name string) (ValidationRule, bool) {
	r, ok := validationByName[name]
	return r, ok
}

// ValidationNames returns every validation rule name, sorted.
func ValidationNames() []string {
	return sortedNames(validationNames)
}

// StandardisationRule is a value to value transform applied before
// coercion and validation.
type StandardisationRule uint8

const (
	ToLowerCase StandardisationRule = iota + 1
	ToUpperCase
	TrimSpaces
	ParseDateRule
	NormalizeDurationRule
	ExtractGenreIdsRule
	NormalizeTagsRule
	NormalizeBoolean
	ToArrayRule
	ToIntRule
	ToFloatRule
	ToDouble
	ToStringRule
	ToBooleanRule
	TrimEmojiRule
	ConvertToQuantitative
)

var standardisationNames = map[StandardisationRule]string{
	ToLowerCase:           "toLowerCase",
	ToUpperCase:           "toUpperCase",
	TrimSpaces:            "trimSpaces",
	ParseDateRule:         "parseDate",
	NormalizeDurationRule: "normalizeDuration",
	ExtractGenreIdsRule:   "extractGenreIds",
	NormalizeTagsRule:     "normalizeTags",
	NormalizeBoolean:      "normalizeBoolean",
	ToArrayRule:           "toArray",
	ToIntRule:             "toInt",
	ToFloatRule:           "toFloat",
	ToDouble:              "toDouble",
	ToStringRule:          "toString",
	ToBooleanRule:         "toBoolean",
	TrimEmojiRule:         "trimEmoji",
	ConvertToQuantitative: "convertToQuantitative",
}

var standardisationByName = invert(standardisationNames)

func (r StandardisationRule) String() string {
	if name, ok := standardisationNames[r]; ok {
		return name
	}
	return "unknown"
}

// LookupStandardisation resolves a transform name.
func LookupStandardisation(name string) (StandardisationRule, bool) {
	r, ok := standardisationByName[name]
	return r, ok
}

// StandardisationNames returns every transform name, sorted.
func StandardisationNames() []string {
	return sortedNames(standardisationNames)
}

func invert[R comparable](names map[R]string) map[string]R {
	out := make(map[string]R, len(names))
	for r, name := range names {
		out[name] = r
	}
	return out
}

func sortedNames[R comparable](names map[R]string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
