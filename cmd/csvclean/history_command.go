package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [dataset]",
		Short: "Show recent cleaning runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset := ""
			if len(args) == 1 {
				dataset = args[0]
			}

			store, err := ctx.requireHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), dataset, limit)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			if len(runs) == 0 {
				out.line("No runs recorded.")
				return nil
			}
			if !out.tty {
				for _, r := range runs {
					out.line("%s  %-8s %s  %d/%d (%.2f%%)  %s",
						r.FinishedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.Dataset,
						r.CleanedRows, r.FilteredRows, r.Retention, r.ID)
				}
				return nil
			}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.FinishedAt.Local().Format("2006-01-02 15:04:05"),
					r.Dataset,
					r.Status,
					fmt.Sprintf("%d/%d", r.CleanedRows, r.FilteredRows),
					fmt.Sprintf("%.2f%%", r.Retention),
					r.ID.String(),
				}
			}
			out.table([]string{"Finished", "Dataset", "Status", "Kept", "Retention", "Run"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft})
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show")
	return cmd
}
