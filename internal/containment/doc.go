// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package containment decides whether tags are inside triggers and turns
containment changes into trigger events.

A check resolves the trigger, confirms the point lies in some zone, computes
containment, and applies the trigger's direction rule against the previous
state of the (trigger, tag) pair:

	WhileIn   emits "is inside" on every check that finds the tag inside
	WhileOut  emits "is outside" on every check that finds the tag outside
	OnCross   emits "crossed ... Enter|Exit" once per flip
	OnEnter   emits "entered" on outside -> inside
	OnExit    emits "exited" on inside -> outside

Portable triggers are circles around their assigned tag, evaluated locally as
3D distance against the tag cache. Static triggers are polygons evaluated by
the RTLS point-in-trigger endpoint behind a rate limiter.

The new state is stored on every successful check, whether or not an event is
emitted. The "show trigger events" toggle only gates emission. Errors are
logged and counted and end the check without an event; they never reach the
caller.

Events the RTLS pushes itself go through HandleServerEvent, which drops
replays seen within the dedup TTL.
*/
package containment
