// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tagwatch/internal/middleware"
)

// Router wires the handler into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware config uses the defaults.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/status", h.Status)
		r.Post("/connect", h.Connect)
		r.Post("/disconnect", h.Disconnect)
		r.Post("/zone", h.SwitchZone)
		r.Get("/zones", h.Zones)

		r.Route("/triggers", func(r chi.Router) {
			r.Get("/", h.Triggers)
			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitMutations())
				r.Post("/", h.CreateTrigger)
				r.Post("/refresh", h.RefreshTriggers)
				r.Delete("/{id}", h.DeleteTrigger)
				r.Post("/{id}/move", h.MoveTrigger)
			})
		})

		r.Get("/events/recent", h.RecentEvents)
		r.Get("/events", h.SystemEvents)
		r.Delete("/events", h.ClearEvents)
		r.Put("/settings/show-events", h.SetShowEvents)

		r.Get("/map", h.MapState)
		r.Post("/map/view", h.SetView)
		r.Post("/map/key", h.MapKey)

		r.Get("/preferences", h.Preferences)
		r.Put("/preferences", h.SetPreferences)
	})

	r.Get("/ws", h.WebSocket)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
