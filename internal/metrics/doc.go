// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package metrics provides Prometheus metrics for the real-time pipeline.

Metrics are registered with promauto on the default registry and exposed at
/metrics through promhttp.

# Available Metrics

Stream:
  - tagwatch_stream_state: Current connection state (gauge, one label set to 1)
  - tagwatch_stream_reconnects_total: Reconnect attempts by socket (counter)
  - tagwatch_stream_messages_total: Inbound messages by type (counter)
  - tagwatch_stream_malformed_total: Dropped malformed messages (counter)
  - tagwatch_stream_stale_total: Staleness disconnects (counter)

Ingest:
  - tagwatch_positions_received_total: Position samples accepted (counter)
  - tagwatch_positions_ignored_total: Samples for unsubscribed tags (counter)
  - tagwatch_ingest_flushes_total: Throttle flushes (counter)
  - tagwatch_ingest_flush_size: Messages per flush (histogram)
  - tagwatch_tags_tracked: Tags in the cache (gauge)
  - tagwatch_tag_rate: Positions per second over the rate window (gauge)

Containment:
  - tagwatch_containment_checks_total: Checks by kind and outcome (counter)
  - tagwatch_containment_check_duration_seconds: Check latency (histogram)
  - tagwatch_trigger_events_total: Emitted events by direction (counter)

RTLS REST client:
  - tagwatch_rtls_requests_total, tagwatch_rtls_request_duration_seconds
  - tagwatch_circuit_breaker_state, tagwatch_circuit_breaker_transitions_total

Operator surface:
  - tagwatch_api_requests_total, tagwatch_api_request_duration_seconds
  - tagwatch_ws_connections, tagwatch_ws_messages_sent_total
  - tagwatch_map_ops_total: Map layer operations by kind (counter)
*/
package metrics
