// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"

	"github.com/tomtom215/tagwatch/internal/metrics"
)

func counterValue(t *testing.T, method, endpoint, status string) float64 {
	t.Helper()
	var m dto.Metric
	if err := metrics.APIRequestsTotal.WithLabelValues(method, endpoint, status).Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestPrometheusMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Delete("/api/triggers/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	before := counterValue(t, http.MethodDelete, "/api/triggers/{id}", "204")
	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/triggers/"+id, nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	if got := counterValue(t, http.MethodDelete, "/api/triggers/{id}", "204") - before; got != 3 {
		t.Errorf("counter delta = %v, want 3", got)
	}
}

func TestPrometheusMetricsStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		write  bool
		want   string
	}{
		{"implicit 200", 0, true, "200"},
		{"explicit 409", http.StatusConflict, false, "409"},
		{"first header wins", http.StatusBadGateway, false, "502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				if tt.write {
					_, _ = w.Write([]byte("ok"))
				}
			}))

			before := counterValue(t, http.MethodPost, unmatchedRoute, tt.want)
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/nowhere", nil))
			if got := counterValue(t, http.MethodPost, unmatchedRoute, tt.want) - before; got != 1 {
				t.Errorf("counter %s delta = %v, want 1", tt.want, got)
			}
		})
	}
}
