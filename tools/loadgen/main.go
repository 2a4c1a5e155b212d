// loadgen floods the transaction stream with synthetic events as fast as the
// broker accepts them, then reports publish throughput. Useful for sizing the
// view-writer's dispatch pool and NATS consumer settings before a load test.
//
// Usage:
//
//	go run ./tools/loadgen -events 10000 -url nats://localhost:4222
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/providers/jetstream"
	"github.com/paystream/payment-analytics/internal/source"
)

var (
	natsURL    = flag.String("url", "nats://localhost:4222", "NATS server URL")
	streamName = flag.String("stream", "TRANSACTION_EVENTS", "JetStream stream name")
	eventCount = flag.Int("events", 10000, "Number of events to publish")
	userCount  = flag.Int("users", 10, "Number of distinct user IDs to spread events across")
	csvFile    = flag.String("file", "data/transactions.csv", "Transaction template CSV")
	maxRows    = flag.Int("max-rows", 50000, "Template sample size")
	reportEach = flag.Int("report", 1000, "Print progress every N events")
)

func main() {
	flag.Parse()

	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	templates, err := source.LoadTemplates(*csvFile, *maxRows, rng)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load templates: %v\n", err)
		os.Exit(1)
	}

	publisher, err := jetstream.NewPublisher(ctx, jetstream.Config{
		URL:            *natsURL,
		StreamName:     *streamName,
		MaxReconnects:  10,
		ReconnectWait:  2 * time.Second,
		ConnectionName: "loadgen",
	}, adapter.NewNatsJetStream(), adapter.NewJSON())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to NATS: %v\n", err)
		os.Exit(1)
	}
	defer publisher.Close()

	fmt.Printf("Publishing %d events from %d templates to %s\n", *eventCount, len(templates), *streamName)

	start := time.Now()
	published := 0
	failed := 0

	for i := 0; i < *eventCount; i++ {
		if ctx.Err() != nil {
			fmt.Println("\nInterrupted")
			break
		}

		tmpl := templates[rng.Intn(len(templates))]
		event := &domain.TransactionEvent{
			ID:            uuid.New(),
			UserID:        fmt.Sprintf("User_%d", rng.Intn(*userCount)+1),
			Timestamp:     time.Now().UTC(),
			AmountCents:   tmpl.AmountCents,
			Category:      tmpl.Category,
			Merchant:      tmpl.Merchant,
			Description:   tmpl.Description,
			PaymentMethod: tmpl.PaymentMethod,
			IsRecurring:   tmpl.IsRecurring,
		}

		if err := publisher.PublishEvent(ctx, event); err != nil {
			failed++
			continue
		}
		published++

		if *reportEach > 0 && published%*reportEach == 0 {
			elapsed := time.Since(start)
			fmt.Printf("  %d events in %s (%.0f events/sec)\n",
				published, elapsed.Round(time.Millisecond), float64(published)/elapsed.Seconds())
		}
	}

	elapsed := time.Since(start)
	fmt.Printf("\nDone: %d published, %d failed in %s (%.0f events/sec)\n",
		published, failed, elapsed.Round(time.Millisecond), float64(published)/elapsed.Seconds())
}
