// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package middleware provides the HTTP middleware shared by the operator API.

Key Components:

  - RequestID: accepts or generates X-Request-ID and puts it, with a fresh
    correlation ID, into the request context for logging.Ctx
  - PrometheusMetrics: counts requests and observes latency per chi route
    pattern, so path parameters do not explode label cardinality

Both have the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
