package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	js "github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/messaging"
)

// Config holds the configuration for a NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type publisher struct {
	nc         adapter.NatsConn
	jetstream  adapter.JetStream
	streamName string
	json       adapter.JSON
}

// NewPublisher creates a NATS JetStream publisher for transaction events,
// ensuring the stream exists before the first publish
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	nc, jsCtx, err := connect(cfg, natsJS)
	if err != nil {
		return nil, err
	}

	err = jsCtx.CreateOrUpdateStream(ctx, js.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{subjectRoot + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream %s: %w", cfg.StreamName, err)
	}

	return &publisher{
		nc:         nc,
		jetstream:  jsCtx,
		streamName: cfg.StreamName,
		json:       jsonAdapter,
	}, nil
}

// PublishEvent publishes one transaction event to NATS JetStream
func (p *publisher) PublishEvent(ctx context.Context, event *domain.TransactionEvent) error {
	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := buildSubject(event)

	if _, err := p.jetstream.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	return nil
}

// Close drains the NATS connection so buffered publishes flush before exit
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// subjectRoot prefixes all transaction event subjects
const subjectRoot = "transactions.stream"

// buildSubject constructs the NATS subject for an event.
// Format: transactions.stream.{payment_method}, e.g. transactions.stream.debit_card
func buildSubject(event *domain.TransactionEvent) string {
	method := event.PaymentMethod
	if method == "" {
		method = "unknown"
	}
	return fmt.Sprintf("%s.%s", subjectRoot, method)
}

// connect opens the NATS connection shared by publisher and consumer
func connect(cfg Config, natsJS adapter.NatsJetStream) (adapter.NatsConn, adapter.JetStream, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, jsCtx, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return nc, jsCtx, nil
}
