// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package models

import (
	"fmt"
	"time"
)

// Verb is the literal word written into event text. UI filters match on these
// substrings, so they must not change.
type Verb string

const (
	VerbEntered   Verb = "entered"
	VerbExited    Verb = "exited"
	VerbIsInside  Verb = "is inside"
	VerbIsOutside Verb = "is outside"
	VerbCrossed   Verb = "crossed"
)

// EventSource tells whether the event was computed locally or pushed by the RTLS.
type EventSource string

const (
	SourceClient EventSource = "client"
	SourceServer EventSource = "server"
)

// TriggerEvent is one containment event. It is rendered to a plain string
// before it enters the event log.
type TriggerEvent struct {
	TriggerID   int         `json:"trigger_id"`
	TriggerName string      `json:"trigger_name"`
	TagID       string      `json:"tag_id"`
	ZoneName    string      `json:"zone_name"`
	Sequence    Sequence    `json:"sequence_number"`
	Direction   Direction   `json:"direction"`
	Verb        Verb        `json:"verb"`
	Crossing    string      `json:"crossing,omitempty"` // "Enter" or "Exit" for OnCross
	At          time.Time   `json:"timestamp"`
	Source      EventSource `json:"source"`
}

// String formats the event for the logs.
func (e TriggerEvent) String() string {
	subject := fmt.Sprintf("Tag %s", e.TagID)
	target := fmt.Sprintf("trigger %d (%s)", e.TriggerID, e.TriggerName)
	zone := e.ZoneName
	if zone == "" {
		zone = "unknown zone"
	}
	ts := e.At.Format("2006-01-02 15:04:05")

	body := fmt.Sprintf("%s %s %s", subject, e.Verb, target)
	if e.Verb == VerbCrossed && e.Crossing != "" {
		body += " " + e.Crossing
	}
	return fmt.Sprintf("%s in %s (seq %s) at %s", body, zone, e.Sequence, ts)
}
