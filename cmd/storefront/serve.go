package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/upb/storefront-assistant/app"
	"github.com/upb/storefront-assistant/routes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant API",
		Long: `Serve starts the HTTP API (REST and WebSocket) and, when enabled, a
separate Prometheus metrics listener. SIGINT or SIGTERM drains both servers
within SERVER_SHUTDOWN_TIMEOUT.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := opts.load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			return runServe(ctx, rt, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")
	return cmd
}

func runServe(ctx context.Context, rt *runtime, migrate bool) error {
	logger := rt.logger

	deps, err := app.NewDependencies(ctx, rt.cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(context.Background()); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
	}()

	if migrate {
		if err := deps.DB.InitSchema(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	api := &http.Server{
		Addr:         rt.cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  rt.cfg.Server.ReadTimeout,
		WriteTimeout: rt.cfg.Server.WriteTimeout,
	}

	var metrics *http.Server
	if rt.cfg.Observability.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", deps.Metrics.Handler())
		metrics = &http.Server{
			Addr:    fmt.Sprintf(":%d", rt.cfg.Observability.MetricsPort),
			Handler: mux,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api server listening",
			zap.String("addr", api.Addr),
			zap.String("environment", rt.cfg.Environment))
		return listen(api)
	})

	if metrics != nil {
		g.Go(func() error {
			logger.Info("metrics server listening", zap.String("addr", metrics.Addr))
			return listen(metrics)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.ShutdownTimeout())
		defer cancel()

		var errs []error
		if err := api.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("api server: %w", err))
		}
		if metrics != nil {
			if err := metrics.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics server: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("servers stopped")
	return nil
}

// listen runs srv until Shutdown; a clean close is not an error
func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server %s: %w", srv.Addr, err)
	}
	return nil
}
