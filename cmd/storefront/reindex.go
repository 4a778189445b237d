package main

import (
	"context"
	"errors"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/storefrontbase/storefront/internal/indexsync"
	"github.com/storefrontbase/storefront/internal/services"
)

func newReindexCmd(configDir *string) *cobra.Command {
	var collections []string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Push every document of a collection to the search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(collections) == 0 {
				return errors.New("at least one --collection is required")
			}

			mgr, cleanup, err := setup(*configDir, services.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for _, collection := range collections {
				cmd.Printf("Reindexing %s...\n", collection)
				stats, err := mgr.Reindex(ctx, collection)
				if err != nil {
					return err
				}
				printStats(cmd, stats)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&collections, "collection", nil, "collection to reindex (repeatable)")
	return cmd
}

func printStats(cmd *cobra.Command, stats indexsync.ReindexStats) {
	states := make([]string, 0, len(stats))
	for state := range stats {
		states = append(states, string(state))
	}
	sort.Strings(states)

	cmd.Printf("  %d documents\n", stats.Total())
	for _, state := range states {
		cmd.Printf("  %-10s %d\n", state, stats[indexsync.State(state)])
	}
}
