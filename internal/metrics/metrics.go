package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paystream_events_produced_total",
		Help: "Total number of transaction events published to the stream.",
	})

	EventsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paystream_events_consumed_total",
		Help: "Total number of transaction events consumed from the stream.",
	})

	ViewsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paystream_views_skipped_total",
		Help: "Total number of view intents dropped by validation, labelled by view.",
	}, []string{"view"})

	WriteOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paystream_write_outcomes_total",
		Help: "Total number of dispatched write intents, labelled by view and outcome.",
	}, []string{"view", "outcome"})

	WriteRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paystream_write_retries_total",
		Help: "Total number of retried counter increments, labelled by view.",
	}, []string{"view"})

	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "paystream_dispatch_duration_ms",
		Help:    "Per-event fan-out dispatch latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	RowsExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paystream_rows_expired_total",
		Help: "Total number of TTL rows removed by the sweeper, labelled by view.",
	}, []string{"view"})
)
