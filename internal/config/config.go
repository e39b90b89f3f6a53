// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// It is loaded once at startup by LoadWithKoanf and injected into every
// component; nothing in the pipeline reads the environment directly.
type Config struct {
	RTLS        RTLSConfig        `koanf:"rtls"`
	Stream      StreamConfig      `koanf:"stream"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Containment ContainmentConfig `koanf:"containment"`
	Events      EventsConfig      `koanf:"events"`
	Render      RenderConfig      `koanf:"render"`
	Storage     StorageConfig     `koanf:"storage"`
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// RTLSConfig locates the RTLS server and tunes the REST client.
type RTLSConfig struct {
	ControlURL         string        `koanf:"control_url"`          // Control WebSocket (ws:// or wss://)
	APIURL             string        `koanf:"api_url"`              // REST base URL
	RequestTimeout     time.Duration `koanf:"request_timeout"`      // Per-request timeout
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"` // Consecutive failures before the breaker opens
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`      // Open-state duration before a half-open probe
	ReloadRetries      int           `koanf:"reload_retries"`       // Trigger list reload attempts
	ReloadRetryDelay   time.Duration `koanf:"reload_retry_delay"`   // Delay between reload attempts
	RefreshInterval    time.Duration `koanf:"refresh_interval"`     // Periodic trigger list refresh (0 = off)
}

// StreamConfig controls the two-stage WebSocket session.
type StreamConfig struct {
	RedirectDelay        time.Duration `koanf:"redirect_delay"`         // Wait after PortRedirect before dialing the stream socket
	DefaultManager       string        `koanf:"default_manager"`        // Stream path when PortRedirect has no manager_name
	ReconnectDelay       time.Duration `koanf:"reconnect_delay"`        // Fixed delay between reconnect attempts
	MaxReconnectAttempts int           `koanf:"max_reconnect_attempts"` // Per socket
	DisconnectDrain      time.Duration `koanf:"disconnect_drain"`       // Max wait for read loops on manual disconnect
	StaleAfter           time.Duration `koanf:"stale_after"`            // No data for this long forces disconnected
	StaleCheckInterval   time.Duration `koanf:"stale_check_interval"`   // Watchdog tick
	HandshakeTimeout     time.Duration `koanf:"handshake_timeout"`
	WriteTimeout         time.Duration `koanf:"write_timeout"`
}

// IngestConfig controls position buffering.
type IngestConfig struct {
	ThrottleWindow time.Duration `koanf:"throttle_window"` // At most one flush per window
	RateWindow     time.Duration `koanf:"rate_window"`     // Rolling window for tags/sec
	TagExpiry      time.Duration `koanf:"tag_expiry"`      // Silence before a tag record is dropped
	SweepInterval  time.Duration `koanf:"sweep_interval"`  // How often expired tags are swept
}

// ContainmentConfig controls the trigger engine.
type ContainmentConfig struct {
	PointCheckRate  float64       `koanf:"point_check_rate"`  // Static point-in-trigger calls per second (0 = unlimited)
	PointCheckBurst int           `koanf:"point_check_burst"` // Limiter burst
	CheckTimeout    time.Duration `koanf:"check_timeout"`     // Deadline for one containment check
	DedupTTL        time.Duration `koanf:"dedup_ttl"`         // Server-pushed event replay window
	DedupSize       int           `koanf:"dedup_size"`        // Max remembered server events
}

// EventsConfig controls the event log.
type EventsConfig struct {
	Show              bool          `koanf:"show"`               // Initial value of the "show trigger events" toggle
	RecentLimit       int           `koanf:"recent_limit"`       // Recent ring capacity
	HighlightDuration time.Duration `koanf:"highlight_duration"` // How long the newest trigger stays highlighted
}

// RenderConfig controls the geometry renderers.
type RenderConfig struct {
	PollInterval  time.Duration `koanf:"poll_interval"`  // Portable renderer cache poll
	Debounce      time.Duration `koanf:"debounce"`       // Quiet period before a moved trigger commits
	MoveThreshold float64       `koanf:"move_threshold"` // Smaller moves are ignored
}

// StorageConfig locates the local state store.
type StorageConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval"` // Value log GC period
}

// ServerConfig holds the operator HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
