// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package mapsurface owns the operator map: one layer per trigger shape, plus
the viewport.

The surface never draws anything itself. It reconciles descriptor lists from
the geometry renderers against its layer table and emits the minimal set of
layer operations to a Sink, which the UI hub forwards to browsers.

Layer lifecycle:

	absent --(first valid geometry)--> visible <--> hidden
	   ^                                  |           |
	   +------(id leaves the list)---- removed <------+

A pending descriptor hides its layer but keeps it. Only a descriptor that
disappears from the upstream list removes the layer. A descriptor whose
uniqueKey did not change produces no geometry update.

Navigation covers home, fit, pan and zoom, with the keyboard shortcuts
h, f, arrow keys, + and -.
*/
package mapsurface
