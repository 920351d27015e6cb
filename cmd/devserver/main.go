package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/backend"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/migrate"
	"storefront/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New("devserver", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("devserver failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack, closeStorage, err := openStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	if err := seed.Apply(ctx, stack.Products, stack.UserSvc); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	srv := stack.Server(cfg.HTTPAddr, logger, cfg.CORSOrigins)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openStack uses Postgres when a DSN is configured and in-memory storage
// otherwise.
func openStack(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend.Stack, func(), error) {
	if cfg.DBConnString == "" {
		logger.Warn("DB_DSN not set, using in-memory storage")
		return backend.NewMemory(logger, nil), func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return backend.NewPostgres(pool, logger, nil), pool.Close, nil
}
