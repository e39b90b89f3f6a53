// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package models

// MapPreferences are the operator's map display settings. They survive
// restarts.
type MapPreferences struct {
	ShowStatic   bool    `json:"show_static"`
	ShowPortable bool    `json:"show_portable"`
	ShowTags     bool    `json:"show_tags"`
	ShowEvents   bool    `json:"show_events"`
	Zoom         float64 `json:"zoom" validate:"finite,gte=-10,lte=10"`
	CenterX      float64 `json:"center_x" validate:"finite"`
	CenterY      float64 `json:"center_y" validate:"finite"`
	ZoneID       *int    `json:"zone_id,omitempty"`
}

// DefaultMapPreferences shows everything at the default zoom.
func DefaultMapPreferences() MapPreferences {
	return MapPreferences{
		ShowStatic:   true,
		ShowPortable: true,
		ShowTags:     true,
		ShowEvents:   true,
	}
}
