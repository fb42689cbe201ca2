// Package cmd defines and implements the CLI commands for the pricewatch executable.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/app"
	"github.com/pricewatch/pricewatch/internal/catalog"
	"github.com/pricewatch/pricewatch/internal/config"
	"github.com/pricewatch/pricewatch/internal/logging"
)

var cfgFile string

type runtimeKeyType string

const runtimeKey runtimeKeyType = "runtime"

// App is the application surface commands depend on. It allows a mock app to
// be injected during tests.
type App interface {
	Crawl(ctx context.Context, target catalog.Target) (catalog.Result, error)
	Products() catalog.ProductStore
	Ready(ctx context.Context) error
	Close()
}

// runtime bundles the services built once per invocation.
type runtime struct {
	app    App
	cfg    config.Config
	logger *zap.Logger
}

// newApp is the application factory, replaceable in tests.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricewatch",
		Short: "A paginated product catalog crawler with change detection.",
		Long: `pricewatch walks a paginated product catalog, detects new products and
price changes against a price cache, downloads product images, and persists
the accepted set in one shot at the end of each run.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}

			rt := &runtime{app: appInstance, cfg: cfg, logger: logger}
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey, rt))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(runtimeKey).(*runtime); ok && rt != nil {
				rt.app.Close()
				_ = rt.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default uses built-in defaults and PRICEWATCH_* env vars)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveRuntime(ctx context.Context) (*runtime, error) {
	rt, ok := ctx.Value(runtimeKey).(*runtime)
	if !ok || rt == nil {
		return nil, errors.New("application services not initialized")
	}
	return rt, nil
}

// Execute is the main entry point.
func Execute() error {
	return newRootCmd().Execute()
}
