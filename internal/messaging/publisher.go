package messaging

import (
	"context"

	"github.com/paystream/payment-analytics/internal/domain"
)

// Publisher defines the interface for publishing transaction events to the
// message broker
type Publisher interface {
	// PublishEvent publishes one transaction event
	PublishEvent(ctx context.Context, event *domain.TransactionEvent) error
	// Close closes the connection
	Close()
}
