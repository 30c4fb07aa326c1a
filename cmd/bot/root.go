package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/xaenox/frontdesk/internal/actions"
	"github.com/xaenox/frontdesk/internal/classifier"
	"github.com/xaenox/frontdesk/internal/completion"
	"github.com/xaenox/frontdesk/internal/gbp"
	"github.com/xaenox/frontdesk/internal/orchestrator"
	"github.com/xaenox/frontdesk/internal/quota"
	"github.com/xaenox/frontdesk/internal/status"
	"github.com/xaenox/frontdesk/internal/storage"
	"github.com/xaenox/frontdesk/pkg/config"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "frontdesk",
		Short:        "Conversational front desk for local businesses on Telegram",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable development logging")

	root.AddCommand(
		newServeCmd(opts),
		newPollCmd(opts),
		newMigrateCmd(opts),
		newProjectCmd(opts),
	)
	return root
}

// setup loads configuration and builds the logger.
func (o *rootOptions) setup() (*config.Config, *zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if o.debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err), zap.String("path", o.configPath))
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openStorage(cfg config.DatabaseConfig, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		return storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		}, logger)
	case "sqlite":
		logger.Info("Using SQLite storage", zap.String("path", cfg.Path))
		return storage.NewSQLiteStorage(cfg.Path, logger)
	default:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}
}

// buildOrchestrator wires the message pipeline on top of store.
func buildOrchestrator(ctx context.Context, cfg *config.Config, store storage.Storage, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	opts := completion.Options{
		Provider:    cfg.Completion.Provider,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		BaseURL:     cfg.Completion.BaseURL,
		MaxTokens:   cfg.Completion.MaxTokens,
		Temperature: cfg.Completion.Temperature,
	}
	// Content generation wants prose, classification wants a JSON object.
	writer, err := completion.New(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("create completion provider: %w", err)
	}
	opts.JSONMode = true
	intentProvider, err := completion.New(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("create completion provider: %w", err)
	}

	limits := quota.Limits{
		ActionsPerMinute: cfg.Limits.ActionsPerMinute,
		ActionsPerDay:    cfg.Limits.ActionsPerDay,
		UsagePerDay:      cfg.Limits.UsagePerDay,
	}
	limiter := quota.NewRateLimiter(store, limits, logger)
	guard := quota.NewUsageGuard(store, limits, logger)

	profile := gbp.NewClient(&http.Client{Timeout: cfg.Google.Timeout}, cfg.Google.ReviewsBaseURL, cfg.Google.InfoBaseURL, logger)

	return orchestrator.New(orchestrator.Deps{
		Store:      store,
		Classifier: classifier.NewIntentClassifier(intentProvider, logger),
		Limiter:    limiter,
		Registry: actions.NewRegistry(actions.Deps{
			Store:    store,
			Provider: writer,
			Guard:    guard,
			Profile:  profile,
			Logger:   logger,
		}),
		Reporter: status.NewReporter(store, limiter, guard, limits, logger),
		Logger:   logger,
	}), nil
}
