// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package geo

import (
	"fmt"
	"math"

	"github.com/tomtom215/tagwatch/internal/models"
)

// Distance3D is the Euclidean distance including z.
func Distance3D(a, b models.Point3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Distance2D ignores z.
func Distance2D(a, b models.Point3) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// PointInPolygon is a ray-casting test on the x/y plane. Points exactly on an
// edge may fall either way; authoritative answers come from the RTLS.
func PointInPolygon(p models.Point3, poly []models.Point3) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			xCross := (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// Bounds is an axis-aligned box on the x/y plane.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// BoundsOf returns the bounding box of pts. ok is false for an empty slice.
func BoundsOf(pts []models.Point3) (b Bounds, ok bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}
	b = Bounds{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b, true
}

// Union grows b to include o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Center returns the middle of the box.
func (b Bounds) Center() models.Point3 {
	return models.Point3{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Contains reports whether p is inside or on the box.
func (b Bounds) Contains(p models.Point3) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PointKey renders p at two-decimal precision. Two points with the same key
// draw identically on the map.
func PointKey(p models.Point3) string {
	return fmt.Sprintf("%.2f,%.2f", Round2(p.X), Round2(p.Y))
}

// RingLatLngs converts a vertex ring into Leaflet [lat, lng] pairs.
func RingLatLngs(ring []models.Point3) [][2]float64 {
	out := make([][2]float64, len(ring))
	for i, p := range ring {
		ll := LatLngOf(p)
		out[i] = [2]float64{ll.Lat, ll.Lng}
	}
	return out
}
