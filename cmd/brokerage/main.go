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

	"github.com/efreitasn/brokerage/internal/config"
	"github.com/efreitasn/brokerage/internal/engine"
	"github.com/efreitasn/brokerage/internal/handler"
	"github.com/efreitasn/brokerage/internal/ledger"
	"github.com/efreitasn/brokerage/internal/logging"
	"github.com/efreitasn/brokerage/internal/seed"
	"github.com/efreitasn/brokerage/internal/service"
	"github.com/efreitasn/brokerage/internal/store"
	"github.com/efreitasn/brokerage/internal/store/sqlstore"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg)
	if err != nil {
		slog.Error("failed to open log file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()
	logger.Info("store opened", slog.String("driver", cfg.StoreDriver))

	customers := store.NewCustomerDirectory()
	if cfg.SeedFile != "" {
		if err := applySeed(cfg.SeedFile, st, customers, logger); err != nil {
			return err
		}
	}

	l := ledger.New(logger)
	orderSvc := service.NewOrderService(st, l, logger)
	assetSvc := service.NewAssetService(st, l, customers, logger)
	matcher := engine.NewMatcher(st, l, logger)

	router := handler.NewRouter(orderSvc, assetSvc, matcher, customers, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for SIGINT/SIGTERM or a listener failure.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqlstore.Open(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}

// applySeed loads fixtures into the directory and store. A persistent store
// that already holds the seeded balances keeps them.
func applySeed(path string, st store.Store, customers *store.CustomerDirectory, logger *slog.Logger) error {
	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	err = seed.Apply(context.Background(), st, customers, f)
	switch {
	case errors.Is(err, store.ErrBalanceExists):
		logger.Warn("seed balances already present, keeping stored state", slog.String("seed_file", path))
	case err != nil:
		return fmt.Errorf("apply seed: %w", err)
	}
	logger.Info("seed applied",
		slog.String("seed_file", path),
		slog.Int("customers", len(f.Customers)),
		slog.Int("balances", len(f.Balances)),
	)
	return nil
}
