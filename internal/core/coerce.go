package core

import (
	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/schema"
)

// Coerce converts each column to the type named by its effective
// validation chain and returns the coercion chosen per column. Columns
// without a type tag are left untouched and map to rules.CoerceNone.
func Coerce(f *Frame, chains schema.Chains[rules.ValidationRule]) map[string]rules.Coercion {
	kinds := make(map[string]rules.Coercion, len(f.Columns))
	for c, column := range f.Columns {
		chain, _ := chains.For(column)
		kind := rules.CoercionFor(chain)
		kinds[column] = kind
		if kind == rules.CoerceNone {
			continue
		}
		cells := f.Data[c]
		for r, v := range cells {
			cells[r] = kind.Apply(v)
		}
	}
	return kinds
}
