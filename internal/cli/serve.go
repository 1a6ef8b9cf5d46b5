package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/httpserver"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			clock := clockwork.NewRealClock()
			reg := metrics.NewRegistry()

			b, err := openBackend(ctx, cfg, clock, reg, backendOptions{migrate: true})
			if err != nil {
				return err
			}
			defer b.Close()

			srv, err := httpserver.NewServer(cfg, b.service(cfg, clock, reg), clock, reg, b.checks)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			for _, run := range b.runners {
				g.Go(func() error { return run(gctx) })
			}
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				slog.Info("Shutdown signal received, cleaning up...")

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			err = g.Wait()
			slog.Info("Server stopped")
			return err
		},
	}
}
