// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package config

import (
	"fmt"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRTLS(); err != nil {
		return err
	}
	if err := c.validateStream(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRTLS() error {
	if err := validateWSURL(c.RTLS.ControlURL, "RTLS_CONTROL_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.RTLS.APIURL, "RTLS_API_URL"); err != nil {
		return err
	}
	if c.RTLS.RequestTimeout <= 0 {
		return fmt.Errorf("RTLS_REQUEST_TIMEOUT must be positive")
	}
	if c.RTLS.ReloadRetries < 1 {
		return fmt.Errorf("RTLS_RELOAD_RETRIES must be at least 1")
	}
	if c.RTLS.RefreshInterval < 0 {
		return fmt.Errorf("RTLS_REFRESH_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateStream() error {
	s := c.Stream
	if s.DefaultManager == "" {
		return fmt.Errorf("STREAM_DEFAULT_MANAGER must not be empty")
	}
	if s.MaxReconnectAttempts < 0 {
		return fmt.Errorf("STREAM_MAX_RECONNECTS must not be negative")
	}
	return requirePositive(map[string]time.Duration{
		"STREAM_RECONNECT_DELAY":   s.ReconnectDelay,
		"STREAM_DISCONNECT_DRAIN":  s.DisconnectDrain,
		"STREAM_STALE_AFTER":       s.StaleAfter,
		"STREAM_STALE_CHECK":       s.StaleCheckInterval,
		"STREAM_HANDSHAKE_TIMEOUT": s.HandshakeTimeout,
		"STREAM_WRITE_TIMEOUT":     s.WriteTimeout,
	})
}

func (c *Config) validatePipeline() error {
	if err := requirePositive(map[string]time.Duration{
		"INGEST_THROTTLE_WINDOW":    c.Ingest.ThrottleWindow,
		"INGEST_RATE_WINDOW":        c.Ingest.RateWindow,
		"INGEST_TAG_EXPIRY":         c.Ingest.TagExpiry,
		"INGEST_SWEEP_INTERVAL":     c.Ingest.SweepInterval,
		"CONTAINMENT_CHECK_TIMEOUT": c.Containment.CheckTimeout,
		"EVENTS_HIGHLIGHT_DURATION": c.Events.HighlightDuration,
		"RENDER_POLL_INTERVAL":      c.Render.PollInterval,
		"RENDER_DEBOUNCE":           c.Render.Debounce,
	}); err != nil {
		return err
	}
	if c.Containment.PointCheckRate < 0 {
		return fmt.Errorf("CONTAINMENT_CHECK_RATE must not be negative")
	}
	if c.Containment.PointCheckRate > 0 && c.Containment.PointCheckBurst < 1 {
		return fmt.Errorf("CONTAINMENT_CHECK_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.Containment.DedupSize < 1 {
		return fmt.Errorf("CONTAINMENT_DEDUP_SIZE must be at least 1")
	}
	if c.Events.RecentLimit < 1 {
		return fmt.Errorf("EVENTS_RECENT_LIMIT must be at least 1")
	}
	if c.Render.MoveThreshold < 0 {
		return fmt.Errorf("RENDER_MOVE_THRESHOLD must not be negative")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("STORAGE_PATH is required unless STORAGE_IN_MEMORY=true")
	}
	if c.Storage.GCInterval < 0 {
		return fmt.Errorf("STORAGE_GC_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func requirePositive(fields map[string]time.Duration) error {
	for name, d := range fields {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	return nil
}
