// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package console wires the pipeline together and exposes the operator actions.

# Data flow

	stream.Manager ──OnPosition──▶ ingest.Ingestor ──flush──▶ containment.Engine
	       │                              │                         │
	       │                        ingest.TagCache                 ▼
	       │                              │                  eventlog.Log ──▶ hub
	       │                              ▼
	       │                  geometry.PortableRenderer ──▶ mapsurface.Surface ──▶ hub
	       │
	       └──OnTriggerEvent──▶ containment.Engine.HandleServerEvent

	registry.Registry ──OnChange──▶ geometry.StaticRenderer ──▶ mapsurface.Surface

Every flush evaluates each (trigger, tag) pair once and then polls the portable
renderer, so containment colours follow the same cycle.

# Operator actions

Connect, Disconnect and SwitchZone drive the stream session. CreateTrigger
checks the draft locally first (at least three vertices, inside the zone
outline, unique name) and only then calls the RTLS. DeleteTrigger and
MoveTrigger go straight to the RTLS and reload the trigger list. Errors from
operator actions are returned to the caller; errors inside the pipeline are
logged and the cycle moves on.
*/
package console
