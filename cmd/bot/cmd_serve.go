package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xaenox/frontdesk/internal/transport"
	"github.com/xaenox/frontdesk/internal/webhook"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve Telegram webhooks for every project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := openStorage(cfg.Database, logger)
			if err != nil {
				logger.Error("Failed to initialize storage", zap.Error(err))
				return err
			}
			defer store.Close()

			if projects, err := store.ListProjects(ctx); err != nil {
				logger.Warn("Failed to list projects", zap.Error(err))
			} else {
				active := 0
				for _, p := range projects {
					if p.IsActive() {
						active++
					}
				}
				logger.Info("Loaded projects", zap.Int("total", len(projects)), zap.Int("active", active))
			}

			orch, err := buildOrchestrator(ctx, cfg, store, logger)
			if err != nil {
				return err
			}

			sender := transport.NewTelegramSender(&http.Client{Timeout: 30 * time.Second}, logger)
			if cfg.Telegram.APIEndpoint != "" {
				sender.SetAPIEndpoint(cfg.Telegram.APIEndpoint)
			}
			telegram := webhook.NewTelegramHandler(orch, store, sender, webhook.Options{
				SecretToken:   cfg.Telegram.SecretToken,
				InlineReplies: cfg.Telegram.InlineReplies,
				Timeout:       cfg.Conversation.HandleTimeout,
			}, logger)

			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      webhook.NewRouter(telegram, webhook.NewHealthHandler(store), logger),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					logger.Error("Server failed", zap.Error(err))
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down gracefully")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", zap.Error(err))
				return err
			}
			logger.Info("Server stopped")
			return nil
		},
	}
}
