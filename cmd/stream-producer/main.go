package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/config"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/providers/jetstream"
	"github.com/paystream/payment-analytics/internal/source"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadStreamProducerConfig(*configFile, *envPath)
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
			"service": "stream-producer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Stream Producer")

	// Load transaction templates
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	templates, err := source.LoadTemplates(cfg.Stream.TransactionsFile, cfg.Stream.MaxRows, rng)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load transaction templates",
			zap.Error(err), zap.String("file", cfg.Stream.TransactionsFile))
	}
	logger.InfoCtx(ctx, "Loaded transaction templates",
		zap.Int("templates", len(templates)),
		zap.String("file", cfg.Stream.TransactionsFile),
	)

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()
	clock := adapter.NewClock()

	// Create publisher
	publisher, err := jetstream.NewPublisher(ctx,
		jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		},
		natsJS,
		jsonAdapter,
	)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer publisher.Close()
	logger.InfoCtx(ctx, "Connected to NATS", zap.String("stream", cfg.NATS.StreamName))

	// Create producer
	producer := source.NewProducer(templates, publisher, clock, rng, source.Config{
		UserID:      cfg.Stream.UserID,
		StreamDelay: cfg.Stream.Delay,
		MaxEvents:   cfg.Stream.MaxEvents,
	})

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for producer errors
	errCh := make(chan error, 1)

	// Start the stream
	go func() {
		errCh <- producer.Run(ctx)
	}()

	// Wait for shutdown signal, budget exhaustion, or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
		<-errCh
	case err := <-errCh:
		switch {
		case errors.Is(err, domain.ErrSourceExhausted):
			logger.InfoCtx(ctx, "Stream complete")
		case err != nil && !errors.Is(err, context.Canceled):
			logger.ErrorCtx(ctx, err, zap.String("component", "producer"))
		}
	}

	logger.InfoCtx(ctx, "Stream Producer stopped")
}
