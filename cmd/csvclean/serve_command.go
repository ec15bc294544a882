package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/schema"
	"github.com/JonMunkholm/csvclean/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cleaning API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			catalog, err := ctx.catalog()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			store, err := ctx.requireHistory(runCtx)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx.logger.Info("configuration loaded",
				"addr", cfg.Server.Addr(),
				"history", cfg.History.Driver,
				"max_concurrent_cleans", cfg.Server.MaxConcurrent,
				"datasets", len(catalog.All()),
				"builtin", schema.Count(),
			)

			srv := web.NewServer(web.Deps{
				Config:       cfg,
				Catalog:      catalog,
				History:      store,
				Quantitative: ctx.quantitative(),
				Logger:       ctx.logger,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-runCtx.Done():
			}

			ctx.logger.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			ctx.logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Interface to bind (default from SERVER_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from SERVER_PORT)")
	return cmd
}
