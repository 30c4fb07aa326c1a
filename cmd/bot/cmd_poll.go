package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xaenox/frontdesk/internal/bot"
	"go.uber.org/zap"
)

func newPollCmd(opts *rootOptions) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Serve one project through Telegram long polling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if projectID == "" {
				projectID = cfg.Telegram.ProjectID
			}
			if projectID == "" || cfg.Telegram.Token == "" {
				return fmt.Errorf("poll needs telegram.token and a project id")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := openStorage(cfg.Database, logger)
			if err != nil {
				logger.Error("Failed to initialize storage", zap.Error(err))
				return err
			}
			defer store.Close()

			orch, err := buildOrchestrator(ctx, cfg, store, logger)
			if err != nil {
				return err
			}

			b, err := bot.New(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, projectID, orch, logger)
			if err != nil {
				logger.Error("Failed to create bot", zap.Error(err))
				return err
			}
			return b.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id to serve (default telegram.project_id)")
	return cmd
}
