// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package containment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/tagwatch/internal/metrics"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/stream"
)

// serverTimeLayouts are the timestamp formats seen from the RTLS.
var serverTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// HandleServerEvent logs an event the RTLS evaluated itself. Replays within
// the dedup TTL are dropped. It reports whether the event was emitted.
func (e *Engine) HandleServerEvent(msg stream.TriggerEvent) bool {
	if e.dedup.IsDuplicate(msg.Key()) {
		metrics.ServerEventsDeduplicated.Inc()
		e.logger.Debug().Int("trigger_id", msg.TriggerID).Str("tag", string(msg.TagID)).Msg("Dropping replayed server event")
		return false
	}
	if !e.showEvents.Load() {
		return false
	}

	dir, verb, crossing := parseServerDirection(string(msg.Direction))

	ev := models.TriggerEvent{
		TriggerID: msg.TriggerID,
		TagID:     string(msg.TagID),
		Direction: dir,
		Verb:      verb,
		Crossing:  crossing,
		At:        parseServerTime(string(msg.Timestamp), e.now),
		Source:    models.SourceServer,
	}
	if t, ok := e.triggers.Trigger(msg.TriggerID); ok {
		ev.TriggerName = t.Name
		if ev.Direction == 0 {
			ev.Direction = t.DirectionID
			ev.Verb = verbFor(t.DirectionID)
		}
	} else {
		ev.TriggerName = fmt.Sprintf("trigger %d", msg.TriggerID)
	}
	if msg.ZoneID != nil {
		ev.ZoneName = e.triggers.ZoneName(*msg.ZoneID)
	}
	if ev.Verb == "" {
		ev.Verb = models.VerbCrossed
	}

	metrics.TriggerEvents.WithLabelValues(ev.Direction.String(), string(models.SourceServer)).Inc()
	e.emit(ev)
	return true
}

// parseServerDirection maps the direction field, which the RTLS sends as a
// direction ID, a direction name, or a crossing word.
func parseServerDirection(raw string) (models.Direction, models.Verb, string) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		d := models.Direction(n)
		if !d.Valid() {
			return 0, "", ""
		}
		return d, verbFor(d), ""
	}

	switch strings.ToLower(s) {
	case "whilein", "while_in":
		return models.DirectionWhileIn, models.VerbIsInside, ""
	case "whileout", "while_out":
		return models.DirectionWhileOut, models.VerbIsOutside, ""
	case "oncross", "on_cross":
		return models.DirectionOnCross, models.VerbCrossed, ""
	case "onenter", "on_enter", "entered":
		return models.DirectionOnEnter, models.VerbEntered, ""
	case "onexit", "on_exit", "exited":
		return models.DirectionOnExit, models.VerbExited, ""
	case "enter":
		return models.DirectionOnCross, models.VerbCrossed, "Enter"
	case "exit":
		return models.DirectionOnCross, models.VerbCrossed, "Exit"
	default:
		return 0, "", ""
	}
}

func verbFor(d models.Direction) models.Verb {
	switch d {
	case models.DirectionWhileIn:
		return models.VerbIsInside
	case models.DirectionWhileOut:
		return models.VerbIsOutside
	case models.DirectionOnEnter:
		return models.VerbEntered
	case models.DirectionOnExit:
		return models.VerbExited
	default:
		return models.VerbCrossed
	}
}

// parseServerTime accepts the layouts above and epoch seconds or
// milliseconds. Unparseable values fall back to now.
func parseServerTime(raw string, now func() time.Time) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return now()
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(int64(n))
		}
		return time.Unix(int64(n), 0)
	}
	for _, layout := range serverTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now()
}
