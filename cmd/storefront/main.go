package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/storefrontbase/storefront/internal/config"
	"github.com/storefrontbase/storefront/internal/logging"
	"github.com/storefrontbase/storefront/internal/services"
)

const initTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront backend: callables, catalog reads and search index sync",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultConfigDir, "directory holding config.yml and config.local.yml")

	root.AddCommand(
		newServeCmd(&configDir),
		newReindexCmd(&configDir),
		newAdminCmd(&configDir),
	)
	return root
}

// setup loads configuration, installs the logger and initializes a
// manager. The returned cleanup shuts everything down again.
func setup(configDir string, opts services.Options) (*services.Manager, func(), error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, err
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	mgr := services.NewManager(cfg, opts)
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		mgr.Shutdown(ctx)
		_ = logging.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := mgr.Init(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return mgr, cleanup, nil
}
