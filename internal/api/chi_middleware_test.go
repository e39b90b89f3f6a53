// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/tagwatch/internal/config"
)

func TestChiMiddlewareConfigFromServer(t *testing.T) {
	t.Parallel()

	cfg := config.ServerConfig{CORSOrigins: []string{"http://a"}, RateLimitReqs: 20, RateLimitWindow: 30 * time.Second}
	got := ChiMiddlewareConfigFromServer(cfg)
	if got.RateLimitDisabled || got.RateLimitRequests != 20 || got.RateLimitWindow != 30*time.Second {
		t.Errorf("rate limit = %+v", got)
	}
	if len(got.CORSAllowedOrigins) != 1 || got.CORSAllowedOrigins[0] != "http://a" {
		t.Errorf("origins = %v", got.CORSAllowedOrigins)
	}

	if !ChiMiddlewareConfigFromServer(config.ServerConfig{}).RateLimitDisabled {
		t.Error("zero budget should disable rate limiting")
	}
}

func TestRateLimitReturnsEnvelope(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})
	h := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.RemoteAddr = "10.0.0.9:5000"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d", last.Code)
	}
	if ct := last.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"http://console.local"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Content-Type"},
		RateLimitDisabled:  true,
	})
	h := m.CORS()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/connect", nil)
	req.Header.Set("Origin", "http://console.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://console.local" {
		t.Errorf("allow origin = %q", got)
	}
}
