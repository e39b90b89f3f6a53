// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stream metrics
var (
	StreamState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tagwatch_stream_state",
			Help: "Current RTLS stream connection state (1 for the active state)",
		},
		[]string{"state"},
	)

	StreamReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwatch_stream_reconnects_total",
			Help: "Reconnect attempts by socket",
		},
		[]string{"socket"}, // "control", "stream"
	)

	StreamMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwatch_stream_messages_total",
			Help: "Inbound RTLS messages by type",
		},
		[]string{"type"},
	)

	StreamMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagwatch_stream_malformed_total",
			Help: "Inbound messages dropped because they could not be decoded",
		},
	)

	StreamStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagwatch_stream_stale_total",
			Help: "Times the stream was marked disconnected for lack of data",
		},
	)
)

// Ingest metrics
var (
	PositionsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagwatch_positions_received_total",
			Help: "Position samples accepted into the ingest buffer",
		},
	)

	PositionsIgnored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagwatch_positions_ignored_total",
			Help: "Position samples for tags outside the subscription",
		},
	)

	IngestFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagwatch_ingest_flushes_total",
			Help: "Throttle window flushes",
		},
	)

	IngestFlushSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tagwatch_ingest_flush_size",
			Help:    "Messages applied per flush",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	TagsTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagwatch_tags_tracked",
			Help: "Tags currently held in the position cache",
		},
	)

	TagRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagwatch_tag_rate",
			Help: "Position samples per second over the rate window",
		},
	)
)

// Containment metrics
var (
	ContainmentChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwatch_containment_checks_total",
			Help: "Containment checks by trigger kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: "static", "portable"; outcome: "ok", "skipped", "error"
	)

	ContainmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagwatch_containment_check_duration_seconds",
			Help:    "Duration of a containment check",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	TriggerEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwatch_trigger_events_total",
			Help: "Trigger events emitted by direction and source",
		},
		[]string{"direction", "source"},
	)

	ServerEventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagwatch_server_events_deduplicated_total",
			Help: "Server-pushed trigger events skipped as replays",
		},
	)
)

// RTLS REST client metrics
var (
	RTLSRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwatch_rtls_requests_total",
			Help: "RTLS REST requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	RTLSRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagwatch_rtls_request_duration_seconds",
			Help:    "RTLS REST request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tagwatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwatch_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// Operator surface metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwatch_api_requests_total",
			Help: "Operator API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagwatch_api_request_duration_seconds",
			Help:    "Operator API latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagwatch_ws_connections",
			Help: "Connected operator WebSocket clients",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwatch_ws_messages_sent_total",
			Help: "Messages broadcast to operator clients by type",
		},
		[]string{"type"},
	)

	MapOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwatch_map_ops_total",
			Help: "Map layer operations by kind",
		},
		[]string{"op"},
	)
)

// AppInfo carries build information.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "tagwatch_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit"},
)

// SetStreamState marks state as the only active stream state.
func SetStreamState(state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		StreamState.WithLabelValues(s).Set(v)
	}
}

// RecordContainmentCheck records the outcome and latency of one check.
func RecordContainmentCheck(kind, outcome string, duration time.Duration) {
	ContainmentChecks.WithLabelValues(kind, outcome).Inc()
	ContainmentDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordFlush records a throttle flush of n messages.
func RecordFlush(n int) {
	IngestFlushes.Inc()
	IngestFlushSize.Observe(float64(n))
}

// RecordRTLSRequest records a REST call to the RTLS.
func RecordRTLSRequest(operation, status string, duration time.Duration) {
	RTLSRequests.WithLabelValues(operation, status).Inc()
	RTLSRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIRequest records an operator API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
