package messaging

import (
	"context"

	"github.com/paystream/payment-analytics/internal/domain"
)

// EventHandler is called once per delivered transaction event. A returned
// error naks the delivery for redelivery; nil acks it.
type EventHandler func(ctx context.Context, event *domain.TransactionEvent) error

// Consumer defines the interface for consuming transaction events from the
// message broker
type Consumer interface {
	// Consume delivers events to handler until ctx is canceled. Blocking.
	Consume(ctx context.Context, handler EventHandler) error
	// Close closes the connection and cleans up resources
	Close()
}
