// Package main is the storefront assistant entrypoint: the API server plus
// the maintenance commands that share its configuration.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/upb/storefront-assistant/config"
	"github.com/upb/storefront-assistant/internal/observability"
	"go.uber.org/zap"
)

// rootOptions carries the global flags
type rootOptions struct {
	logLevel  string
	logFormat string
}

// runtime is what every command needs before doing work
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront sales assistant",
		Long: `Storefront runs the sales assistant API and its maintenance tasks.

Configuration comes from the environment (and a .env file when present).
Flags given here override the matching environment values.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format override (json, console)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newDocsCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))

	return cmd
}

// load reads configuration and builds the logger
func (o *rootOptions) load(ctx context.Context) (*runtime, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Observability.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Observability.LogFormat = o.logFormat
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger}, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
