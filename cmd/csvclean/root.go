package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "csvclean",
		Short:         "Clean raw CSV exports by applying schema-specific rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.schemaFile, "schema-file", "", "YAML or TOML file with extra dataset schemas")
	flags.StringVar(&ctx.lookupFile, "lookup", "", "JSON answer score table for convertToQuantitative")
	flags.BoolVar(&ctx.strictRules, "strict-rules", false, "Reject schema files that name unknown rules")
	flags.StringVar(&ctx.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&ctx.noEnvFile, "no-env-file", false, "Do not read a .env file")

	rootCmd.AddCommand(newCleanCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newRulesCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
