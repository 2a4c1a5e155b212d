package jetstream

import (
	"context"
	"fmt"
	"time"

	js "github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/messaging"
)

// ConsumerConfig holds the configuration for the durable JetStream consumer
type ConsumerConfig struct {
	Config
	ConsumerName   string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

type consumer struct {
	nc        adapter.NatsConn
	jetstream adapter.JetStream
	json      adapter.JSON
	config    ConsumerConfig
}

// NewConsumer creates a durable NATS JetStream consumer for transaction events
func NewConsumer(cfg ConsumerConfig, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Consumer, error) {
	nc, jsCtx, err := connect(cfg.Config, natsJS)
	if err != nil {
		return nil, err
	}

	return &consumer{
		nc:        nc,
		jetstream: jsCtx,
		json:      jsonAdapter,
		config:    cfg,
	}, nil
}

// Consume delivers transaction events to handler until ctx is canceled.
// Events are acked only after the handler returns; handler errors nak the
// delivery for redelivery, undecodable payloads are terminated.
func (c *consumer) Consume(ctx context.Context, handler messaging.EventHandler) error {
	consumerConfig := js.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		AckPolicy:     js.AckExplicitPolicy,
		AckWait:       c.config.AckWaitTimeout,
		MaxDeliver:    c.config.MaxDeliver,
		FilterSubject: subjectRoot + ".>",
	}

	jsConsumer, err := c.jetstream.CreateOrUpdateConsumer(ctx, c.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	info, err := jsConsumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer ready", zap.String("consumer", info.Name), zap.String("stream", c.config.StreamName))

	msgChan := make(chan adapter.Message, 100)
	sub, err := jsConsumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			// Let the in-flight handler finish its fan-out; stop delivery first
			sub.Drain()
			c.drainPending(sub, msgChan)
			return ctx.Err()
		case msg := <-msgChan:
			c.handleMessage(ctx, msg, handler)
		}
	}
}

// drainPending releases deliveries still queued once the subscription drains.
// Unstarted messages are naked for redelivery on the next run; leaving them
// unread would strand callback goroutines blocked on the channel send.
func (c *consumer) drainPending(sub adapter.ConsumeContext, msgChan <-chan adapter.Message) {
	nak := func(msg adapter.Message) {
		if err := msg.Nak(); err != nil {
			logger.Error(err, zap.String("message", "Failed to NAK message"))
		}
	}

	for {
		select {
		case msg := <-msgChan:
			nak(msg)
		case <-sub.Closed():
			// Delivery has stopped; sweep whatever is left in the buffer
			for {
				select {
				case msg := <-msgChan:
					nak(msg)
				default:
					return
				}
			}
		}
	}
}

// handleMessage decodes and processes a single delivery
func (c *consumer) handleMessage(ctx context.Context, msg adapter.Message, handler messaging.EventHandler) {
	var event domain.TransactionEvent
	if err := c.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal event"))
		// Unparseable payloads never succeed on redelivery
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	if err := handler(ctx, &event); err != nil {
		logger.Error(err, zap.String("message", "Failed to process event"), zap.String("event_id", event.ID.String()))
		if err := msg.Nak(); err != nil {
			logger.Error(err, zap.String("message", "Failed to NAK message"))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ACK message"))
	}
}

// Close closes the NATS connection
func (c *consumer) Close() {
	if c.nc == nil {
		return
	}
	c.nc.Close()
}
