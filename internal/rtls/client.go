// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package rtls

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/metrics"
)

const breakerName = "rtls-api"

// maxBodyBytes caps how much of a response we read.
const maxBodyBytes = 8 << 20

// Client talks to the RTLS REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a client for cfg.APIURL.
func NewClient(cfg config.RTLSConfig) *Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: cfg.RequestTimeout})
}

// NewClientWithHTTP lets tests inject an http.Client.
func NewClientWithHTTP(cfg config.RTLSConfig, hc *http.Client) *Client {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.APIURL, "/"),
		httpClient: hc,
		cb:         cb,
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// request describes one REST call.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
}

// do executes req through the breaker and returns the response body.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	start := time.Now()
	status := "error"

	body, err := c.cb.Execute(func() ([]byte, error) {
		b, code, err := c.roundTrip(ctx, req)
		if code != 0 {
			status = strconv.Itoa(code)
		}
		return b, err
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		status = "rejected"
		err = fmt.Errorf("%s: %w", req.op, err)
	}
	metrics.RecordRTLSRequest(req.op, status, time.Since(start))
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, r request) ([]byte, int, error) {
	fullURL := c.baseURL + r.path
	if len(r.query) > 0 {
		fullURL += "?" + r.query.Encode()
	}

	var reader io.Reader = http.NoBody
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: marshal request: %w", r.op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: create request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: request failed: %w", r.op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s: read response: %w", r.op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, newAPIError(r.op, resp.StatusCode, data)
	}
	return data, resp.StatusCode, nil
}

// getJSON performs a GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func pointQuery(x, y, z float64) url.Values {
	q := url.Values{}
	q.Set("x", strconv.FormatFloat(x, 'f', -1, 64))
	q.Set("y", strconv.FormatFloat(y, 'f', -1, 64))
	q.Set("z", strconv.FormatFloat(z, 'f', -1, 64))
	return q
}
