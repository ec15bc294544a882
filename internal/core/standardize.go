package core

import (
	"fmt"

	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/schema"
)

// Standardize rewrites every column of f through its effective
// standardisation chain, rule by rule over the whole column. It returns the
// rule names applied per column, in execution order.
func Standardize(f *Frame, chains schema.Chains[rules.StandardisationRule], env *rules.Env) (map[string][]string, error) {
	applied := make(map[string][]string)
	for c, column := range f.Columns {
		chain, ok := chains.For(column)
		if !ok || len(chain) == 0 {
			continue
		}
		cells := f.Data[c]
		names := make([]string, 0, len(chain))
		for _, rule := range chain {
			for r, v := range cells {
				out, err := rule.Apply(v, env)
				if err != nil {
					return nil, fmt.Errorf("standardise %s with %s: %w", column, rule, err)
				}
				cells[r] = out
			}
			names = append(names, rule.String())
		}
		applied[column] = names
	}
	return applied, nil
}
