package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xaenox/frontdesk/internal/storage"
	"go.uber.org/zap"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, err := openStorage(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			sqlStore, ok := store.(*storage.SQLStorage)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "In-memory storage has no schema to migrate.")
				return nil
			}
			if err := sqlStore.Migrate(cmd.Context()); err != nil {
				logger.Error("Migration failed", zap.Error(err))
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s).\n", cfg.Database.Driver)
			return nil
		},
	}
}
