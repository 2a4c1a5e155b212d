package writer

import (
	"context"

	"go.uber.org/zap"

	"github.com/paystream/payment-analytics/internal/dispatch"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/messaging"
	"github.com/paystream/payment-analytics/internal/metrics"
	"github.com/paystream/payment-analytics/internal/views"
)

// Writer consumes transaction events and maintains the denormalized views:
// one consumed event fans out to one write per view whose key fields validate.
type Writer interface {
	// Run consumes events until ctx is canceled. Blocking.
	Run(ctx context.Context) error
	// Close drains in-flight writes and closes the consumer
	Close()
}

type writer struct {
	consumer   messaging.Consumer
	router     *views.Router
	dispatcher dispatch.Dispatcher
}

// NewWriter creates a writer wiring the consumer through router and dispatcher
func NewWriter(consumer messaging.Consumer, router *views.Router, dispatcher dispatch.Dispatcher) Writer {
	return &writer{
		consumer:   consumer,
		router:     router,
		dispatcher: dispatcher,
	}
}

// Run starts consuming the transaction stream
func (w *writer) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting view writer")
	return w.consumer.Consume(ctx, w.handleEvent)
}

// handleEvent fans one event out across the view set. The event is acked once
// every intent has had its dispatch attempt; per-view failures are logged and
// counted but never fail the event, so one broken view cannot stall the
// stream or its sibling views.
func (w *writer) handleEvent(ctx context.Context, event *domain.TransactionEvent) error {
	metrics.EventsConsumed.Inc()

	intents, skipped := w.router.Route(event)
	for _, s := range skipped {
		metrics.ViewsSkipped.WithLabelValues(s.View).Inc()
		logger.WarnCtx(ctx, "View skipped by validation",
			zap.String("view", s.View),
			zap.String("event_id", event.ID.String()),
			zap.Error(s.Err),
		)
	}

	outcomes := w.dispatcher.Dispatch(ctx, intents)

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	if failed > 0 {
		logger.WarnCtx(ctx, "Partial fan-out",
			zap.String("event_id", event.ID.String()),
			zap.Int("written", len(outcomes)-failed),
			zap.Int("failed", failed),
			zap.Int("skipped", len(skipped)),
		)
	}

	return nil
}

// Close drains in-flight writes before closing the consumer
func (w *writer) Close() {
	w.dispatcher.Close()
	w.consumer.Close()
}
