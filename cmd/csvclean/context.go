package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/history"
	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/schema"
	_ "github.com/JonMunkholm/csvclean/internal/schema/datasets" // built-in datasets
)

// commandContext carries the settings shared by every command.
type commandContext struct {
	schemaFile  string
	lookupFile  string
	strictRules bool
	logLevel    string
	noEnvFile   bool

	cfg    *config.Config
	logger *slog.Logger
}

// load reads .env and the environment, applies flag overrides and sets up
// logging.
func (c *commandContext) load(cmd *cobra.Command) error {
	if !c.noEnvFile {
		// A missing .env is normal.
		_ = godotenv.Load()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("schema-file") {
		cfg.Paths.SchemaFile = c.schemaFile
	}
	if flags.Changed("lookup") {
		cfg.Paths.LookupFile = c.lookupFile
	}
	if flags.Changed("strict-rules") {
		cfg.Engine.StrictRules = c.strictRules
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = c.logLevel
	}

	c.cfg = cfg
	c.logger = logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	c.logger.Debug("configuration loaded", "config", cfg.String())
	return nil
}

// catalog resolves datasets against the schema file, then the built-ins.
func (c *commandContext) catalog() (*schema.Catalog, error) {
	path := c.cfg.Paths.SchemaFile
	if path == "" {
		return schema.NewCatalog(), nil
	}
	loaded, err := schema.LoadFile(path, schema.LoadOptions{Strict: c.cfg.Engine.StrictRules})
	if err != nil {
		return nil, err
	}
	c.logger.Info("schema file loaded", "path", path, "datasets", len(loaded))
	return schema.NewCatalog(loaded...), nil
}

// quantitative loads the lookup table lazily, so datasets that never use
// convertToQuantitative do not need the file.
func (c *commandContext) quantitative() func() (*rules.QuantitativeTable, error) {
	path := c.cfg.Paths.LookupFile
	return func() (*rules.QuantitativeTable, error) {
		return rules.Quantitative(path)
	}
}

// openHistory opens the run store. A store that cannot be opened is
// logged and replaced by one that discards runs.
func (c *commandContext) openHistory(ctx context.Context) history.Store {
	store, err := history.Open(ctx, c.cfg.History)
	if err != nil {
		c.logger.Warn("run history disabled", "driver", c.cfg.History.Driver, "error", err)
		return history.Nop{}
	}
	return store
}

// requireHistory is openHistory for commands that only read history.
func (c *commandContext) requireHistory(ctx context.Context) (history.Store, error) {
	store, err := history.Open(ctx, c.cfg.History)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return store, nil
}
