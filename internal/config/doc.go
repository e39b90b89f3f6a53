// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package config provides centralized configuration management for Tagwatch.

Configuration is layered with Koanf v2:

 1. Defaults built into defaultConfig()
 2. An optional YAML file (config.yaml, /etc/tagwatch/config.yaml, or CONFIG_PATH)
 3. Environment variables, mapped explicitly in envTransformFunc

Every timing constant of the real-time pipeline is a field here, so tests can
shrink windows and delays without touching package internals.

# Environment Variables

RTLS collaborator:
  - RTLS_CONTROL_URL: Control WebSocket URL (default: ws://localhost:8080/ws/ControlManager)
  - RTLS_API_URL: REST base URL (default: http://localhost:8080)
  - RTLS_REQUEST_TIMEOUT: Per-request timeout (default: 10s)
  - RTLS_RELOAD_RETRIES, RTLS_RELOAD_RETRY_DELAY: Trigger reload policy (default: 3, 1s)
  - RTLS_REFRESH_INTERVAL: Background trigger list refresh, 0 disables (default: 5m)

Stream:
  - STREAM_REDIRECT_DELAY: Delay before following a PortRedirect (default: 2s)
  - STREAM_RECONNECT_DELAY, STREAM_MAX_RECONNECTS: Reconnect policy (default: 5s, 10)
  - STREAM_STALE_AFTER: Data staleness threshold (default: 60s)

Ingest and rendering:
  - INGEST_THROTTLE_WINDOW: Flush window (default: 4s)
  - INGEST_TAG_EXPIRY: Silence before a tag is dropped (default: 5m)
  - RENDER_POLL_INTERVAL, RENDER_DEBOUNCE: Portable renderer timing (default: 2s, 1s)
  - EVENTS_SHOW: Emit trigger events to the log (default: true)

Server:
  - HTTP_HOST, HTTP_PORT: Bind address (default: 0.0.0.0:8480)
  - CORS_ORIGINS: Comma-separated allowed origins
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW: Operator API rate limit

Storage and logging:
  - STORAGE_PATH: BadgerDB directory (default: /data/tagwatch)
  - STORAGE_IN_MEMORY: Keep state in memory only
  - STORAGE_GC_INTERVAL: Value log GC period, 0 disables (default: 10m)
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Thread Safety

Config is immutable after loading and safe for concurrent reads.
*/
package config
