// Package cmd provides the citeseek CLI commands.
//
// Commands:
//   - ask: answer a question about an ingested document
//   - ingest: chunk, embed, and index a document
//   - docs: list and delete ingested documents
//   - migrate: run database migrations
//   - version: show version information
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/citeseek/citeseek/internal/app"
	"github.com/citeseek/citeseek/internal/config"
	"github.com/citeseek/citeseek/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "citeseek",
	Short: "Citeseek - grounded question answering over your documents",
	Long: `Citeseek answers questions about ingested documents using hybrid
retrieval and returns every claim with verifiable citations into the
source text.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// setupApp loads configuration, installs the logger, and builds the
// application container. The returned cleanup must be called before exit.
func setupApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	slog.SetDefault(logger)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing application: %w", err)
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing application", "error", err)
		}
	}
	return a, cleanup, nil
}
