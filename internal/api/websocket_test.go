// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/websocket"
)

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{"missing origin", []string{"*"}, "", false},
		{"wildcard", []string{"*"}, "http://anywhere", true},
		{"listed", []string{"http://console.local"}, "http://console.local", true},
		{"not listed", []string{"http://console.local"}, "http://evil.example", false},
		{"none configured", nil, "http://console.local", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			cfg.Server.CORSOrigins = tt.origins
			h := NewHandler(newFakeConsole(), nil, cfg)

			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()
	if got := sanitizeLogValue("a\nb\r\x00c"); got != "abc" {
		t.Errorf("sanitizeLogValue = %q", got)
	}
	if got := sanitizeLogValue(strings.Repeat("x", 300)); len(got) != 203 {
		t.Errorf("truncated length = %d", len(got))
	}
}

func TestWebSocketReceivesSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub()
	hub.OnRegister(func() []websocket.Message {
		return []websocket.Message{{Type: websocket.MessageTypeSnapshot, Data: map[string]int{"zone_id": 1}}}
	})
	go func() { _ = hub.Serve(ctx) }()

	cfg := config.Default()
	cfg.Server.CORSOrigins = []string{"http://console.local"}
	mw := ChiMiddlewareConfigFromServer(cfg.Server)
	mw.RateLimitDisabled = true
	srv := httptest.NewServer(NewRouter(NewHandler(newFakeConsole(), hub, cfg), mw).SetupChi())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://console.local"}}
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != websocket.MessageTypeSnapshot || msg.Data["zone_id"] != 1 {
		t.Errorf("first message = %+v", msg)
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	hub := websocket.NewHub()
	cfg := config.Default()
	cfg.Server.CORSOrigins = []string{"http://console.local"}
	srv := httptest.NewServer(NewRouter(NewHandler(newFakeConsole(), hub, cfg), nil).SetupChi())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := gorillaws.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
}
