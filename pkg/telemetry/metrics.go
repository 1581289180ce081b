// Package telemetry exposes the Prometheus instruments shared across the
// environment. Instruments are registered on the default registry and
// served by the metrics server in internal/infrastructure/metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersSubmitted counts accepted order submissions by type.
	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ritenv_orders_submitted_total",
		Help: "Orders accepted by the exchange, by order type",
	}, []string{"type"})

	// OrdersRejected counts submissions the exchange refused or that never
	// reached it.
	OrdersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritenv_orders_rejected_total",
		Help: "Order submissions rejected or unreachable",
	})

	// Fills counts distinct fill events discovered by reconciliation.
	Fills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritenv_fills_total",
		Help: "Fill events detected by reconciliation",
	})

	// FillVolume accumulates executed quantity detected by reconciliation.
	FillVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritenv_fill_volume_total",
		Help: "Cumulative executed quantity detected across all orders",
	})

	// Reward accumulates scored reward by attribution source. A gauge
	// because shaped reward can be negative.
	Reward = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ritenv_reward_sum",
		Help: "Cumulative reward paid to the agent, by source",
	}, []string{"source"})

	// ReconcilePasses counts reconciliation sweeps over the ledger.
	ReconcilePasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritenv_reconcile_passes_total",
		Help: "Reconciliation passes over active ledger entries",
	})

	// ReconcileSkips counts per-order polls that failed and were deferred
	// to the next pass.
	ReconcileSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritenv_reconcile_skips_total",
		Help: "Order polls skipped because the exchange was unreachable",
	})

	// Episodes counts episode resets.
	Episodes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritenv_episodes_total",
		Help: "Episodes started",
	})

	// Steps counts environment steps.
	Steps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritenv_steps_total",
		Help: "Environment steps taken",
	})

	// HTTPRequests counts gateway round-trips by method and path.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ritenv_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path"})

	// HTTPErrors counts failed gateway round-trips.
	HTTPErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ritenv_http_errors_total",
		Help: "Total number of HTTP errors",
	}, []string{"method", "path"})

	// HTTPLatency observes gateway round-trip latency in seconds.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ritenv_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)
