/*
main.go - Application entry point

PURPOSE:
  Starts the candle workshop server: configuration, store, components,
  HTTP router, leave-reset job and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load the YAML config
  2. Build the slog logger
  3. Open the store (SQLite, migrated on open, or in-memory)
  4. Create the API handler and router
  5. Start the leave-reset job
  6. Serve until SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -config  YAML config file (default: $CONFIG_PATH, missing file = defaults)
  -port    HTTP port, overrides server.listen_addr
  -db      SQLite database path, overrides database.path
           Use ":memory:" for a throwaway database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the leave-reset job
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the database

EXAMPLES:
  ./server -config=./candleworks.yaml
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - config/config.go: configuration keys
  - api/server.go: router configuration
  - cmd/migrate: manual schema migrations
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/candleworks/api"
	"github.com/warp/candleworks/config"
	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/generic/store"
	"github.com/warp/candleworks/store/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides server.listen_addr)")
	dbPath := flag.String("db", "", "SQLite database path (overrides database.path)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.ListenAddr = fmt.Sprintf(":%d", *port)
	}
	if *dbPath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = *dbPath
	}

	logger := api.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg config.DatabaseConfig, logger *slog.Logger) (generic.Store, func() error, error) {
	if cfg.Driver == "memory" {
		logger.Warn("using in-memory store, data is lost on exit")
		return store.NewMemory(), func() error { return nil }, nil
	}
	s, err := sqlite.New(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	logger.Info("sqlite store ready", "path", cfg.Path)
	return s, s.Close, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	s, closeStore, err := openStore(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	metrics := api.NewMetrics()
	clock := generic.SystemClock{Location: cfg.Leave.Location}
	handler := api.NewHandler(s, api.Options{
		Clock:            clock,
		PolicyYear:       cfg.Leave.Policy(),
		AllowSelfOverlap: !cfg.Leave.RejectSelfOverlap,
		Logger:           logger,
		Metrics:          metrics,
	})

	routerOpts := api.RouterOptions{AllowedOrigins: cfg.CORS.AllowedOrigins}
	if cfg.Metrics.Enabled {
		routerOpts.Metrics = metrics
	}
	router := api.NewRouter(handler, routerOpts)

	resetJob := api.NewLeaveResetScheduler(handler.Scheduler(), api.LeaveResetOptions{
		Cron:     cfg.Leave.ResetCron,
		Location: cfg.Leave.Location,
		Clock:    clock,
		Metrics:  metrics,
		Logger:   logger,
		Enabled:  true,
	})
	if err := resetJob.Start(); err != nil {
		return err
	}
	defer resetJob.Stop()

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
