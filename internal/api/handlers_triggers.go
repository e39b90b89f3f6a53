// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package api

import (
	"net/http"

	"github.com/tomtom215/tagwatch/internal/models"
)

// Triggers lists the known triggers.
func (h *Handler) Triggers(w http.ResponseWriter, r *http.Request) {
	triggers := h.console.Triggers()
	NewResponseWriter(w, r).List(triggers, len(triggers))
}

// CreateTrigger creates a trigger on the RTLS.
func (h *Handler) CreateTrigger(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var draft models.TriggerDraft
	if !decodeAndValidate(rw, r, &draft) {
		return
	}
	t, err := h.console.CreateTrigger(r.Context(), draft)
	if err != nil {
		writeConsoleError(rw, err)
		return
	}
	rw.Created(t)
}

// DeleteTrigger deletes a trigger.
func (h *Handler) DeleteTrigger(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := triggerIDParam(rw, r)
	if !ok {
		return
	}
	if err := h.console.DeleteTrigger(r.Context(), id); err != nil {
		writeConsoleError(rw, err)
		return
	}
	rw.NoContent()
}

// MoveTrigger moves a static trigger to a new reference point.
func (h *Handler) MoveTrigger(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := triggerIDParam(rw, r)
	if !ok {
		return
	}
	var req MoveRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	to := models.Point3{X: *req.X, Y: *req.Y, Z: req.Z}
	if err := h.console.MoveTrigger(r.Context(), id, to); err != nil {
		writeConsoleError(rw, err)
		return
	}
	rw.Success(map[string]interface{}{"trigger_id": id, "to": to})
}

// RefreshTriggers reloads zones and triggers from the RTLS.
func (h *Handler) RefreshTriggers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.console.Refresh(r.Context()); err != nil {
		writeConsoleError(rw, err)
		return
	}
	triggers := h.console.Triggers()
	rw.List(triggers, len(triggers))
}
