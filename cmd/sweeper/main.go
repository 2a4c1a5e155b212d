package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/config"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/store"
	"github.com/paystream/payment-analytics/internal/sweeper"
	"github.com/paystream/payment-analytics/internal/views"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadRowSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store and clock
	descriptors := views.Registry()
	clock := adapter.NewClock()
	viewStore := store.NewPGStore(db, descriptors, clock)

	// Initialize row expiry sweeper
	rowSweeper := sweeper.NewRowExpirySweeper(sweeper.RowExpiryConfig{
		Interval: cfg.Sweeper.Interval,
	}, viewStore, clock, descriptors)

	logger.InfoCtx(ctx, "Initialized row expiry sweeper",
		zap.String("sweeper", rowSweeper.Name()),
		zap.Duration("interval", cfg.Sweeper.Interval),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := rowSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err, zap.String("component", "sweeper"))
	}

	// Stop the sweeper, allowing the in-progress cycle to finish
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := rowSweeper.Stop(stopCtx); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("component", "sweeper"))
	}
	cancel()

	logger.InfoCtx(ctx, "Sweeper stopped")
}
