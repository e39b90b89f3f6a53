// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package models

// Zone is a node of the campus/building/floor hierarchy.
type Zone struct {
	ZoneID   int    `json:"zone_id"`
	Name     string `json:"zone_name"`
	Level    int    `json:"zone_level"`
	ParentID *int   `json:"parent_zone_id"`
}

// ZoneNode is a zone with its children, as returned by the hierarchy endpoint.
type ZoneNode struct {
	Zone
	Children []ZoneNode `json:"children"`
}

// ZoneBounds is the polygon and vertical extent of a zone.
type ZoneBounds struct {
	ZoneID   int      `json:"zone_id"`
	Vertices []Point3 `json:"vertices"`
	ZMin     float64  `json:"z_min"`
	ZMax     float64  `json:"z_max"`
}
