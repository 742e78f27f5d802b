// Package metrics registers the Prometheus collectors for the alert pipeline.
// Exposed at /metrics when METRICS_ENABLED is true.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Broadcasts counts fan-out runs that passed validation.
	Broadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_broadcasts_total",
			Help: "Total number of alert broadcasts processed",
		},
	)

	// Recipients counts per-recipient outcomes of the fan-out fold.
	Recipients = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_recipients_total",
			Help: "Total number of broadcast recipients by outcome",
		},
		[]string{"outcome", "reason"}, // outcome: successful|failed
	)

	// PushChunks counts gateway dispatch calls.
	PushChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_chunks_total",
			Help: "Total number of push gateway batch requests",
		},
		[]string{"result"}, // ok|error|breaker_open
	)

	// PushChunkDuration tracks gateway request latency.
	PushChunkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_chunk_duration_seconds",
			Help:    "Duration of push gateway batch requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PushTickets counts per-message tickets returned by the gateway.
	PushTickets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_tickets_total",
			Help: "Total number of push tickets by status",
		},
		[]string{"status"},
	)

	// PushReceipts counts receipts resolved by reconciliation.
	PushReceipts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_receipts_total",
			Help: "Total number of push receipts checked by status",
		},
		[]string{"status"},
	)

	// APIRequestDuration tracks HTTP handler latency by route pattern.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
