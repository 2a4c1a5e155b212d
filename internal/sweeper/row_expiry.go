package sweeper

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/logger"
	"github.com/paystream/payment-analytics/internal/metrics"
	"github.com/paystream/payment-analytics/internal/store"
	"github.com/paystream/payment-analytics/internal/views"
)

// RowExpiryConfig holds configuration for the row expiry sweeper
type RowExpiryConfig struct {
	// Interval is the pause between sweep cycles
	Interval time.Duration
}

// rowExpirySweeper deletes rows of TTL-bearing views once their expiry
// deadline passes. This is the backend-side enforcement of view TTLs: the
// write path stamps the deadline, this loop removes the rows.
type rowExpirySweeper struct {
	config    RowExpiryConfig
	store     store.ViewStore
	clock     adapter.Clock
	ttlViews  []string
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewRowExpirySweeper creates a sweeper covering every TTL-bearing view in the
// descriptor set
func NewRowExpirySweeper(cfg RowExpiryConfig, st store.ViewStore, clock adapter.Clock, descriptors []views.Descriptor) Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}

	var ttlViews []string
	for _, desc := range descriptors {
		if desc.TTL > 0 {
			ttlViews = append(ttlViews, desc.Name)
		}
	}

	return &rowExpirySweeper{
		config:    cfg,
		store:     st,
		clock:     clock,
		ttlViews:  ttlViews,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *rowExpirySweeper) Name() string {
	return "row-expiry-sweeper"
}

// Start begins the sweep loop
func (s *rowExpirySweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting row expiry sweeper",
		zap.Strings("views", s.ttlViews),
		zap.Duration("interval", s.config.Interval),
	)

	for {
		s.sweepCycle(ctx)

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Row expiry sweeper stopping", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Row expiry sweeper stop requested")
			return nil
		case <-s.clock.After(s.config.Interval):
		}
	}
}

// sweepCycle expires due rows in every TTL-bearing view. A failure on one
// view does not stop the cycle for the others.
func (s *rowExpirySweeper) sweepCycle(ctx context.Context) {
	now := s.clock.Now().UTC()
	for _, view := range s.ttlViews {
		removed, err := s.store.DeleteExpired(ctx, view, now)
		if err != nil {
			logger.ErrorCtx(ctx, err, zap.String("view", view))
			continue
		}
		if removed > 0 {
			metrics.RowsExpired.WithLabelValues(view).Add(float64(removed))
			logger.InfoCtx(ctx, "Expired rows removed",
				zap.String("view", view),
				zap.Int64("rows", removed),
			)
		}
	}
}

// Stop gracefully stops the sweeper, waiting for the in-progress cycle
func (s *rowExpirySweeper) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}

	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for sweeper to stop: %w", ctx.Err())
	}
}
