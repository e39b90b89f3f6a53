// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

// Package geometry turns triggers and tag positions into map-ready shape
// descriptors. Static polygons and portable circles are rendered separately so
// that neither refreshes the other.
package geometry

import (
	"fmt"
	"strings"

	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/models"
)

// Colours used on the map.
const (
	ColorStatic      = "#3388ff"
	ColorContained   = "#e03131"
	ColorUncontained = "#7048e8"
	ColorHighlight   = "#f59f00"
)

// Style is how a layer is drawn.
type Style struct {
	Color       string  `json:"color"`
	FillColor   string  `json:"fillColor"`
	Weight      int     `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

// Descriptor is one drawable trigger shape. Coordinates are CRS.Simple
// [lat, lng] pairs.
type Descriptor struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	IsPortable    bool         `json:"isPortable"`
	Center        *[2]float64  `json:"center,omitempty"`
	Radius        float64      `json:"radius,omitempty"`
	LatLngs       [][2]float64 `json:"latLngs,omitempty"`
	IsContained   bool         `json:"isContained"`
	IsHighlighted bool         `json:"isHighlighted"`
	Pending       bool         `json:"pending,omitempty"`
	UniqueKey     string       `json:"uniqueKey"`
	Style         Style        `json:"style"`
}

// Restyled returns d with the style recomputed for its flags.
func (d Descriptor) Restyled() Descriptor {
	d.Style = StyleFor(d)
	return d
}

// StyleFor derives the style from the descriptor's flags.
func StyleFor(d Descriptor) Style {
	s := Style{Color: ColorStatic, FillColor: ColorStatic, Weight: 2, FillOpacity: 0.2}
	if d.IsPortable {
		s.Color, s.FillColor = ColorUncontained, ColorUncontained
		if d.IsContained {
			s.Color, s.FillColor = ColorContained, ColorContained
			s.FillOpacity = 0.35
		}
	}
	if d.IsHighlighted {
		s.Color = ColorHighlight
		s.Weight = 4
	}
	return s
}

// StaticKey is the change key of a polygon: its ID and vertices at 2 decimals.
func StaticKey(id int, ring []models.Point3) string {
	parts := make([]string, len(ring))
	for i, p := range ring {
		parts[i] = geo.PointKey(p)
	}
	return fmt.Sprintf("static:%d:%s", id, strings.Join(parts, ";"))
}

// PortableKey is the change key of a circle: its ID, centre at 2 decimals,
// and radius.
func PortableKey(id int, center models.Point3, radius float64) string {
	return fmt.Sprintf("portable:%d:%s:r%.2f", id, geo.PointKey(center), radius)
}

// PendingKey is the key of a portable trigger with no known position.
func PendingKey(id int) string {
	return fmt.Sprintf("portable:%d:pending", id)
}
