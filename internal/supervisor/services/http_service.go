// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tagwatch/internal/logging"
)

const defaultDrainTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// ListenFunc opens the listener for one run of the service.
type ListenFunc func(network, addr string) (net.Listener, error)

// HTTPServerService serves the operator API and UI socket under supervision.
// The listener is opened on every run, so a restart after a bind failure
// retries the bind.
type HTTPServerService struct {
	server HTTPServer
	addr   string
	drain  time.Duration
	listen ListenFunc
	logger *zerolog.Logger

	mu    sync.Mutex
	bound net.Addr
}

// NewHTTPServerService serves server on addr. drain bounds the graceful
// shutdown; zero or less means 10s.
func NewHTTPServerService(server HTTPServer, addr string, drain time.Duration) *HTTPServerService {
	if drain <= 0 {
		drain = defaultDrainTimeout
	}
	return &HTTPServerService{
		server: server,
		addr:   addr,
		drain:  drain,
		listen: net.Listen,
		logger: logging.Component("http"),
	}
}

// WithListen replaces the listener factory.
func (h *HTTPServerService) WithListen(fn ListenFunc) *HTTPServerService {
	h.listen = fn
	return h
}

// Addr returns the address of the current listener, or nil between runs.
func (h *HTTPServerService) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bound
}

func (h *HTTPServerService) setBound(a net.Addr) {
	h.mu.Lock()
	h.bound = a
	h.mu.Unlock()
}

// Serve implements suture.Service. A bind or serve failure is returned so the
// supervisor backs off and restarts; cancellation drains open requests and
// returns ctx.Err().
func (h *HTTPServerService) Serve(ctx context.Context) error {
	l, err := h.listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", h.addr, err)
	}
	h.setBound(l.Addr())
	defer h.setBound(nil)

	h.logger.Info().Str("addr", l.Addr().String()).Msg("Operator API listening")

	served := make(chan error, 1)
	go func() {
		served <- h.server.Serve(l)
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", l.Addr(), err)

	case <-ctx.Done():
		drainCtx, cancel := context.WithTimeout(context.Background(), h.drain)
		defer cancel()

		if err := h.server.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("drain %s: %w", l.Addr(), err)
		}
		<-served
		h.logger.Info().Str("addr", l.Addr().String()).Msg("Operator API stopped")
		return ctx.Err()
	}
}

func (h *HTTPServerService) String() string { return "operator-api" }
