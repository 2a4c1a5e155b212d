package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/metrics"
	"github.com/paystream/payment-analytics/internal/store"
	"github.com/paystream/payment-analytics/internal/views"
)

// Config holds the configuration for the write dispatcher
type Config struct {
	// PoolSize bounds concurrent backend writes
	PoolSize int
	// QueueSize bounds pending intents awaiting a worker
	QueueSize int
	// MaxRetries caps retry attempts for counter increments on transient failure
	MaxRetries uint64
	// InitialBackoff is the first retry delay; doubles up to MaxBackoff
	InitialBackoff time.Duration
	// MaxBackoff caps the retry delay
	MaxBackoff time.Duration
}

// Status classifies the terminal result of one intent's dispatch
type Status string

const (
	StatusOK               Status = "ok"
	StatusTransientFailure Status = "transient_failure"
	StatusPermanentFailure Status = "permanent_failure"
)

// Outcome is the per-intent dispatch result. Failures are reported, never
// swallowed; a failed intent has no effect on its siblings.
type Outcome struct {
	View     string
	Status   Status
	Attempts int
	Err      error
}

// Failed reports whether the intent did not land
func (o Outcome) Failed() bool {
	return o.Status != StatusOK
}

// Dispatcher issues routed write intents against the view store
type Dispatcher interface {
	// Dispatch issues every intent independently and returns one outcome per
	// intent, in input order. Sibling intents run concurrently; no intent's
	// failure blocks another's attempt.
	Dispatch(ctx context.Context, intents []views.WriteIntent) []Outcome
	// Close waits for in-flight writes to drain
	Close()
}

type dispatcher struct {
	store  store.ViewStore
	pool   pond.Pool
	clock  adapter.Clock
	config Config
}

// NewDispatcher creates a dispatcher writing through the given store
func NewDispatcher(st store.ViewStore, clock adapter.Clock, cfg Config) Dispatcher {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 8
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 4
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	pool := pond.NewPool(cfg.PoolSize, pond.WithQueueSize(cfg.QueueSize))

	return &dispatcher{
		store:  st,
		pool:   pool,
		clock:  clock,
		config: cfg,
	}
}

// Dispatch fans the intents out over the worker pool and waits for all of them
func (d *dispatcher) Dispatch(ctx context.Context, intents []views.WriteIntent) []Outcome {
	start := d.clock.Now()
	outcomes := make([]Outcome, len(intents))

	// An accepted event's writes run to completion even if ctx is canceled
	// mid-dispatch. Aborting half a fan-out would leave counters partially
	// applied behind an acked event, with no redelivery to repair them;
	// cancellation stops future events at the consumer, not writes already in
	// flight. The retry cap bounds the tail.
	writeCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := range intents {
		wg.Add(1)
		idx := i
		d.pool.Submit(func() {
			defer wg.Done()
			outcomes[idx] = d.dispatchIntent(writeCtx, intents[idx])
		})
	}
	wg.Wait()

	for _, o := range outcomes {
		metrics.WriteOutcomes.WithLabelValues(o.View, string(o.Status)).Inc()
		if o.Failed() {
			logger.WarnCtx(ctx, "View write failed",
				zap.String("view", o.View),
				zap.String("status", string(o.Status)),
				zap.Int("attempts", o.Attempts),
				zap.Error(o.Err),
			)
		}
	}
	metrics.DispatchDuration.Observe(float64(d.clock.Since(start).Milliseconds()))

	return outcomes
}

// dispatchIntent issues a single intent with kind-specific attempt policy
func (d *dispatcher) dispatchIntent(ctx context.Context, intent views.WriteIntent) Outcome {
	switch intent.View.Kind {
	case domain.ViewKindCounter:
		return d.dispatchCounter(ctx, intent)
	default:
		return d.dispatchInsert(ctx, intent)
	}
}

// dispatchInsert makes exactly one attempt. Inserts are last-write-wins, so a
// lost write costs one feed row, never a skewed aggregate; not worth a retry
// window here.
func (d *dispatcher) dispatchInsert(ctx context.Context, intent views.WriteIntent) Outcome {
	err := d.store.Upsert(ctx, intent.View.Name, intent.Key, intent.Values, intent.TTL)
	return outcomeFromError(intent.View.Name, 1, err)
}

// dispatchCounter retries transient failures with exponential backoff.
// Increments are not idempotent: a retry after an attempt that actually landed
// double-counts. Accepted at-least-once trade-off, surfaced in metrics rather
// than solved.
func (d *dispatcher) dispatchCounter(ctx context.Context, intent views.WriteIntent) Outcome {
	attempts := 0

	operation := func() error {
		attempts++
		err := d.store.Increment(ctx, intent.View.Name, intent.Key, intent.CounterDeltas)
		if err == nil {
			return nil
		}
		if domain.IsTransient(err) {
			metrics.WriteRetries.WithLabelValues(intent.View.Name).Inc()
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.InitialBackoff
	b.MaxInterval = d.config.MaxBackoff
	b.MaxElapsedTime = 0 // bounded by retry count, not wall clock

	err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(b, ctx), d.config.MaxRetries))
	return outcomeFromError(intent.View.Name, attempts, err)
}

// Close waits for queued and in-flight writes to finish
func (d *dispatcher) Close() {
	d.pool.StopAndWait()
}

// outcomeFromError maps the final error of a dispatch into an Outcome
func outcomeFromError(view string, attempts int, err error) Outcome {
	o := Outcome{View: view, Attempts: attempts, Err: err}
	switch {
	case err == nil:
		o.Status = StatusOK
	case domain.IsTransient(err):
		o.Status = StatusTransientFailure
	default:
		o.Status = StatusPermanentFailure
	}
	return o
}
