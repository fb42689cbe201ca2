package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API server",
		Long: `Starts an HTTP server exposing crawl-on-demand, the persisted product
set, health probes, and Prometheus metrics. The server shuts down gracefully
on SIGINT or SIGTERM.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}

			server := api.NewServer(rt.app, rt.app.Products(), rt.app.Ready, rt.cfg, rt.logger)
			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", rt.cfg.Server.Port),
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				rt.logger.Info("http server starting", zap.String("addr", httpServer.Addr))
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			rt.logger.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Duration(rt.cfg.Server.ShutdownTimeout)*time.Second,
			)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			rt.logger.Info("http server stopped")
			return nil
		},
	}

	return cmd
}
