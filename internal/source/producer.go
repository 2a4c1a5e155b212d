package source

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/messaging"
	"github.com/paystream/payment-analytics/internal/metrics"
)

// Config holds the configuration for the stream producer
type Config struct {
	// UserID is assigned to every replayed event
	UserID string
	// StreamDelay is the pause between consecutive events
	StreamDelay time.Duration
	// MaxEvents stops the stream after N events; zero streams until canceled
	MaxEvents int
	// ProgressEvery logs a throughput line every N events
	ProgressEvery int
}

// Producer replays transaction templates as live events at a configured pace
type Producer interface {
	// Run streams events until the budget is exhausted or ctx is canceled.
	// The event in flight when cancellation arrives is published before return.
	Run(ctx context.Context) error
}

type producer struct {
	templates []Template
	publisher messaging.Publisher
	clock     adapter.Clock
	rng       *rand.Rand
	config    Config
}

// NewProducer creates a producer replaying the given templates
func NewProducer(templates []Template, pub messaging.Publisher, clock adapter.Clock, rng *rand.Rand, cfg Config) Producer {
	if cfg.UserID == "" {
		cfg.UserID = "User_1"
	}
	if cfg.StreamDelay <= 0 {
		cfg.StreamDelay = 500 * time.Millisecond
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 50
	}
	return &producer{
		templates: templates,
		publisher: pub,
		clock:     clock,
		rng:       rng,
		config:    cfg,
	}
}

// Run streams events from the template pool
func (p *producer) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting transaction stream",
		zap.Int("templates", len(p.templates)),
		zap.Duration("delay", p.config.StreamDelay),
		zap.Int("max_events", p.config.MaxEvents),
	)

	start := p.clock.Now()
	produced := 0

	for {
		if p.config.MaxEvents > 0 && produced >= p.config.MaxEvents {
			logger.InfoCtx(ctx, "Event budget exhausted", zap.Int("produced", produced))
			return domain.ErrSourceExhausted
		}

		event := p.nextEvent()
		if err := p.publisher.PublishEvent(ctx, event); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("event_id", event.ID.String()))
		} else {
			produced++
			metrics.EventsProduced.Inc()
		}

		if produced > 0 && produced%p.config.ProgressEvery == 0 {
			elapsed := p.clock.Since(start)
			rate := float64(produced) / elapsed.Seconds()
			logger.InfoCtx(ctx, "Stream progress",
				zap.Int("produced", produced),
				zap.Duration("elapsed", elapsed),
				zap.Float64("events_per_sec", rate),
			)
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Stream stopped", zap.Int("produced", produced))
			return ctx.Err()
		case <-p.clock.After(p.config.StreamDelay):
		}
	}
}

// nextEvent stamps a random template with fresh identity
func (p *producer) nextEvent() *domain.TransactionEvent {
	tmpl := p.templates[p.rng.Intn(len(p.templates))]
	return &domain.TransactionEvent{
		ID:            uuid.New(),
		UserID:        p.config.UserID,
		Timestamp:     p.clock.Now().UTC(),
		AmountCents:   tmpl.AmountCents,
		Category:      tmpl.Category,
		Merchant:      tmpl.Merchant,
		Description:   tmpl.Description,
		PaymentMethod: tmpl.PaymentMethod,
		IsRecurring:   tmpl.IsRecurring,
	}
}
