package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/storefrontbase/storefront/internal/services"
)

func newServeCmd(configDir *string) *cobra.Command {
	var noSync, noHTTP bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and keep the search index in sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := services.Options{RunHTTP: !noHTTP, RunSync: !noSync}
			if !opts.RunHTTP && !opts.RunSync {
				return errors.New("nothing to run: --no-http and --no-sync are both set")
			}

			mgr, cleanup, err := setup(*configDir, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			slog.Info("Starting storefront", "http", opts.RunHTTP, "sync", opts.RunSync)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mgr.Start(ctx)
			select {
			case <-ctx.Done():
			case err := <-mgr.Err():
				slog.Error("Shutting down after component failure", "error", err)
				return err
			}

			slog.Info("Shutting down services")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "do not run the change stream watcher")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "do not serve HTTP")
	return cmd
}
