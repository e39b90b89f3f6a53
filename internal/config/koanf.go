// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tagwatch/config.yaml",
	"/etc/tagwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. The real-time timings are the
// values the RTLS console has always used.
func defaultConfig() *Config {
	return &Config{
		RTLS: RTLSConfig{
			ControlURL:         "ws://localhost:8080/ws/ControlManager",
			APIURL:             "http://localhost:8080",
			RequestTimeout:     10 * time.Second,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
			ReloadRetries:      3,
			ReloadRetryDelay:   1000 * time.Millisecond,
			RefreshInterval:    5 * time.Minute,
		},
		Stream: StreamConfig{
			RedirectDelay:        2000 * time.Millisecond,
			DefaultManager:       "RealTimeManager",
			ReconnectDelay:       5000 * time.Millisecond,
			MaxReconnectAttempts: 10,
			DisconnectDrain:      500 * time.Millisecond,
			StaleAfter:           60000 * time.Millisecond,
			StaleCheckInterval:   1 * time.Second,
			HandshakeTimeout:     10 * time.Second,
			WriteTimeout:         10 * time.Second,
		},
		Ingest: IngestConfig{
			ThrottleWindow: 4000 * time.Millisecond,
			RateWindow:     10 * time.Second,
			TagExpiry:      5 * time.Minute,
			SweepInterval:  30 * time.Second,
		},
		Containment: ContainmentConfig{
			PointCheckRate:  50,
			PointCheckBurst: 100,
			CheckTimeout:    5 * time.Second,
			DedupTTL:        5 * time.Minute,
			DedupSize:       1000,
		},
		Events: EventsConfig{
			Show:              true,
			RecentLimit:       10,
			HighlightDuration: 3000 * time.Millisecond,
		},
		Render: RenderConfig{
			PollInterval:  2000 * time.Millisecond,
			Debounce:      1000 * time.Millisecond,
			MoveThreshold: 0.05,
		},
		Storage: StorageConfig{
			Path:       "/data/tagwatch",
			InMemory:   false,
			GCInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8480,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit config file path. An empty path
// falls back to the default search.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = findConfigFile()
	}
	return loadFrom(path)
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names to koanf paths. Unmapped
// variables are ignored.
var envMappings = map[string]string{
	"rtls_control_url":          "rtls.control_url",
	"rtls_api_url":              "rtls.api_url",
	"rtls_request_timeout":      "rtls.request_timeout",
	"rtls_breaker_max_failures": "rtls.breaker_max_failures",
	"rtls_breaker_timeout":      "rtls.breaker_timeout",
	"rtls_reload_retries":       "rtls.reload_retries",
	"rtls_reload_retry_delay":   "rtls.reload_retry_delay",
	"rtls_refresh_interval":     "rtls.refresh_interval",

	"stream_redirect_delay":    "stream.redirect_delay",
	"stream_default_manager":   "stream.default_manager",
	"stream_reconnect_delay":   "stream.reconnect_delay",
	"stream_max_reconnects":    "stream.max_reconnect_attempts",
	"stream_disconnect_drain":  "stream.disconnect_drain",
	"stream_stale_after":       "stream.stale_after",
	"stream_stale_check":       "stream.stale_check_interval",
	"stream_handshake_timeout": "stream.handshake_timeout",
	"stream_write_timeout":     "stream.write_timeout",

	"ingest_throttle_window": "ingest.throttle_window",
	"ingest_rate_window":     "ingest.rate_window",
	"ingest_tag_expiry":      "ingest.tag_expiry",
	"ingest_sweep_interval":  "ingest.sweep_interval",

	"containment_check_rate":    "containment.point_check_rate",
	"containment_check_burst":   "containment.point_check_burst",
	"containment_check_timeout": "containment.check_timeout",
	"containment_dedup_ttl":     "containment.dedup_ttl",
	"containment_dedup_size":    "containment.dedup_size",

	"events_show":               "events.show",
	"events_recent_limit":       "events.recent_limit",
	"events_highlight_duration": "events.highlight_duration",

	"render_poll_interval":  "render.poll_interval",
	"render_debounce":       "render.debounce",
	"render_move_threshold": "render.move_threshold",

	"storage_path":        "storage.path",
	"storage_in_memory":   "storage.in_memory",
	"storage_gc_interval": "storage.gc_interval",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps RTLS_API_URL to rtls.api_url and so on.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
