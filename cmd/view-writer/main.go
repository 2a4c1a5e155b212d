package main

import (
	"context"
	"errors"
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
	"github.com/paystream/payment-analytics/internal/dispatch"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/providers/jetstream"
	"github.com/paystream/payment-analytics/internal/store"
	"github.com/paystream/payment-analytics/internal/views"
	"github.com/paystream/payment-analytics/internal/writer"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadViewWriterConfig(*configFile, *envPath)
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
			"service": "view-writer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting View Writer")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store and run migrations
	descriptors := views.Registry()
	clock := adapter.NewClock()
	viewStore := store.NewPGStore(db, descriptors, clock)
	if err := viewStore.Migrate(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate view tables", zap.Error(err))
	}
	logger.InfoCtx(ctx, "View tables migrated", zap.Int("views", len(descriptors)))

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()

	// Create consumer
	consumer, err := jetstream.NewConsumer(
		jetstream.ConsumerConfig{
			Config: jetstream.Config{
				URL:            cfg.NATS.URL,
				StreamName:     cfg.NATS.StreamName,
				MaxReconnects:  cfg.NATS.MaxReconnects,
				ReconnectWait:  cfg.NATS.ReconnectWait,
				ConnectionName: cfg.NATS.ConnectionName,
			},
			ConsumerName:   cfg.NATS.ConsumerName,
			AckWaitTimeout: cfg.NATS.AckWait,
			MaxDeliver:     cfg.NATS.MaxDeliver,
		},
		natsJS,
		jsonAdapter,
	)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create consumer", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	logger.InfoCtx(ctx, "Connected to NATS",
		zap.String("stream", cfg.NATS.StreamName),
		zap.String("consumer", cfg.NATS.ConsumerName),
	)

	// Create the write pipeline
	router := views.NewRouter(descriptors)
	dispatcher := dispatch.NewDispatcher(viewStore, clock, dispatch.Config{
		PoolSize:       cfg.Dispatch.PoolSize,
		QueueSize:      cfg.Dispatch.QueueSize,
		MaxRetries:     cfg.Dispatch.MaxRetries,
		InitialBackoff: cfg.Dispatch.InitialBackoff,
		MaxBackoff:     cfg.Dispatch.MaxBackoff,
	})
	viewWriter := writer.NewWriter(consumer, router, dispatcher)
	defer viewWriter.Close()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for writer errors
	errCh := make(chan error, 1)

	// Start the writer
	go func() {
		if err := viewWriter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "writer"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	logger.InfoCtx(ctx, "View Writer stopped")
}
