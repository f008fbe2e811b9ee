// Package metrics defines the Prometheus collectors exposed on the
// admin listener's /metrics endpoint (spec.md's DOMAIN STACK wiring
// for prometheus/client_golang).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// namespace prefixes every collector registered by this package.
const namespace = "solfees"

var (
	// ReducerQueueDepth tracks how many batches are currently queued
	// for the reducer, sampled at submission time and whenever the
	// reducer dequeues a batch.
	ReducerQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reducer_queue_depth",
		Help:      "Number of request batches currently queued for the reducer.",
	})

	// BroadcastLagTotal counts WebSocket connections closed because
	// their subscription lagged; each such connection counts once, however
	// many updates its ring buffer dropped.
	BroadcastLagTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_lag_total",
		Help:      "Total number of subscription lag events across all WebSocket connections.",
	})

	// ActiveSubscriptions tracks the number of live SlotsSubscribe
	// WebSocket connections.
	ActiveSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_subscriptions",
		Help:      "Number of currently connected SlotsSubscribe WebSocket clients.",
	})

	// RequestDuration measures JSON-RPC request handling latency by
	// dialect and method.
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "JSON-RPC request handling latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"dialect", "method"})

	// RequestsQueueFullTotal counts SubmitBatch rejections due to a
	// full reducer queue.
	RequestsQueueFullTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_queue_full_total",
		Help:      "Total number of batches rejected because the reducer queue was full.",
	})
)

// Register adds every collector in this package to reg. Call this once
// during startup before serving /metrics.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		ReducerQueueDepth,
		BroadcastLagTotal,
		ActiveSubscriptions,
		RequestDuration,
		RequestsQueueFullTotal,
	)
}
