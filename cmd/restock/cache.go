package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pantryops/restock/internal/cache"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the normalization cache",
	}

	cmd.AddCommand(cacheWarmCmd())

	return cmd
}

func cacheWarmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Load the hottest durable entries into memory",
		Long: `Populate the in-process cache layer from the durable store, most
frequently hit entries first. Normally this happens implicitly before an
ingest; running it standalone is useful after clearing the process or to
verify the durable layer.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			kvStore, err := initKV(cfg)
			if err != nil {
				return fmt.Errorf("failed to open kv store: %w", err)
			}
			defer func() { _ = kvStore.Close() }()

			normCache := cache.New(kvStore, cfg.Cache, slog.Default())
			defer normCache.Close()

			loaded, err := normCache.Prewarm(cmd.Context())
			if err != nil {
				return fmt.Errorf("prewarm failed: %w", err)
			}

			slog.Info("cache warmed", "entries", loaded)
			return nil
		},
	}
}
