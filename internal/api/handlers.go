// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/console"
	"github.com/tomtom215/tagwatch/internal/eventlog"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/mapsurface"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/websocket"
)

// Console is the part of the operator console the API drives.
type Console interface {
	Status() console.Status
	Connect(ctx context.Context, tagIDs []string, zoneID int) error
	Disconnect(ctx context.Context) error
	SwitchZone(ctx context.Context, zoneID int) error
	Zones() []models.Zone
	Triggers() []models.Trigger
	Refresh(ctx context.Context) error

	CreateTrigger(ctx context.Context, draft models.TriggerDraft) (models.Trigger, error)
	DeleteTrigger(ctx context.Context, triggerID int) error
	MoveTrigger(ctx context.Context, triggerID int, to models.Point3) error

	RecentEvents() []eventlog.Entry
	SystemEvents() []string
	ClearEvents(ctx context.Context) error
	SetShowEvents(ctx context.Context, show bool)

	MapState() console.MapState
	SetView(ctx context.Context, v mapsurface.View) mapsurface.View
	HandleMapKey(ctx context.Context, key string) (mapsurface.View, error)
	Preferences() models.MapPreferences
	SetPreferences(ctx context.Context, p models.MapPreferences) error
}

// Handler serves the operator API.
type Handler struct {
	console Console
	hub     *websocket.Hub
	config  *config.Config
}

// NewHandler creates a handler. hub may be nil when live updates are off.
func NewHandler(c Console, hub *websocket.Hub, cfg *config.Config) *Handler {
	return &Handler{console: c, hub: hub, config: cfg}
}

// Status returns the stream, ingest and zone state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.console.Status())
}

// Connect starts a session for the requested tags.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req ConnectRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	if err := h.console.Connect(r.Context(), req.TagIDs, req.ZoneID); err != nil {
		writeConsoleError(rw, err)
		return
	}
	rw.Success(h.console.Status())
}

// Disconnect ends the session.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.console.Disconnect(r.Context()); err != nil {
		writeConsoleError(rw, err)
		return
	}
	rw.Success(h.console.Status())
}

// SwitchZone selects another zone.
func (h *Handler) SwitchZone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req ZoneRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	if err := h.console.SwitchZone(r.Context(), req.ZoneID); err != nil {
		writeConsoleError(rw, err)
		return
	}
	rw.Success(h.console.Status())
}

// Zones lists the known zones.
func (h *Handler) Zones(w http.ResponseWriter, r *http.Request) {
	zones := h.console.Zones()
	NewResponseWriter(w, r).List(zones, len(zones))
}

// RecentEvents lists the recent trigger events.
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	events := h.console.RecentEvents()
	NewResponseWriter(w, r).List(events, len(events))
}

// SystemEvents lists the system events.
func (h *Handler) SystemEvents(w http.ResponseWriter, r *http.Request) {
	events := h.console.SystemEvents()
	NewResponseWriter(w, r).List(events, len(events))
}

// ClearEvents drops the system events.
func (h *Handler) ClearEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.console.ClearEvents(r.Context()); err != nil {
		writeConsoleError(rw, err)
		return
	}
	rw.NoContent()
}

// SetShowEvents toggles event emission.
func (h *Handler) SetShowEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req ShowEventsRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	h.console.SetShowEvents(r.Context(), *req.Show)
	logging.Ctx(r.Context()).Info().Bool("show", *req.Show).Msg("Event display toggled")
	rw.Success(map[string]bool{"show_events": *req.Show})
}

// MapState returns layers, features and the viewport.
func (h *Handler) MapState(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.console.MapState())
}

// SetView moves the viewport.
func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req ViewRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	v := h.console.SetView(r.Context(), mapsurface.View{Center: [2]float64{req.Lat, req.Lng}, Zoom: req.Zoom})
	rw.Success(v)
}

// MapKey applies a keyboard shortcut.
func (h *Handler) MapKey(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req MapKeyRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	v, err := h.console.HandleMapKey(r.Context(), req.Key)
	if err != nil {
		writeConsoleError(rw, err)
		return
	}
	rw.Success(v)
}

// Preferences returns the map preferences.
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.console.Preferences())
}

// SetPreferences replaces the map preferences.
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req models.MapPreferences
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	if err := h.console.SetPreferences(r.Context(), req); err != nil {
		writeConsoleError(rw, err)
		return
	}
	rw.Success(h.console.Preferences())
}
