package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/rules"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	var datasets bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List rule names, or the configured datasets with --datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newPrinter(cmd.OutOrStdout())
			if datasets {
				catalog, err := ctx.catalog()
				if err != nil {
					return err
				}
				rows := [][]string{}
				for _, s := range catalog.All() {
					rows = append(rows, []string{s.Name, joinNames(s.Validation.Names()), s.Source})
				}
				out.table([]string{"Dataset", "Validated columns", "Source"}, rows, nil)
				return nil
			}

			out.line("Validation rules:")
			for _, name := range rules.ValidationNames() {
				out.line("  %s", name)
			}
			out.line("Standardisation rules:")
			for _, name := range rules.StandardisationNames() {
				out.line("  %s", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&datasets, "datasets", false, "List configured datasets instead of rule names")
	return cmd
}
