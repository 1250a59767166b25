package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/use-agent/shelfscan/api"
	"github.com/use-agent/shelfscan/cache"
	"github.com/use-agent/shelfscan/config"
	"github.com/use-agent/shelfscan/logging"
	"github.com/use-agent/shelfscan/metrics"
	"github.com/use-agent/shelfscan/scraper"
)

// shutdownTimeout is how long in-flight requests get after a signal.
const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API and page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 3000, "listen port (overrides SHELFSCAN_PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.Init(cfg.Log)
	slog.Info("shelfscan starting",
		"addr", cfg.Addr(),
		"mode", cfg.Server.Mode,
		"engine", cfg.Fetch.Engine,
		"version", version,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	sc, err := scraper.NewFromConfig(cfg, m)
	if err != nil {
		return fmt.Errorf("failed to initialise scraper: %w", err)
	}
	defer func() {
		if err := sc.Close(); err != nil {
			slog.Warn("closing fetch engine", logging.Err(err))
		}
	}()

	var cc *cache.Cache
	if cfg.Cache.TTL > 0 {
		cc = cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
		slog.Info("result cache enabled", "ttl", cfg.Cache.TTL, "maxEntries", cfg.Cache.MaxEntries)
	}

	router, err := api.NewRouter(cfg, api.Deps{
		Service:   sc,
		Cache:     cc,
		Metrics:   m,
		StartTime: time.Now(),
		Version:   version,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info(fmt.Sprintf("Server running at http://localhost:%d", cfg.Server.Port))
		slog.Info(fmt.Sprintf("Test the endpoint at http://localhost:%d/api/scrape?keyword=headphones", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("srv.Shutdown: %w", err)
		}
		slog.Info("HTTP server drained gracefully")
		return nil
	})

	err = g.Wait()
	slog.Info("shelfscan stopped")
	return err
}
