// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package mapsurface

import (
	"math"

	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/models"
)

// Zoom limits, in CRS.Simple zoom levels.
const (
	MinZoom = -10.0
	MaxZoom = 10.0
)

// panFraction is how far one pan step moves, relative to the visible span.
const panFraction = 0.1

// View is the viewport: a CRS.Simple centre and zoom level.
type View struct {
	Center [2]float64 `json:"center"` // [lat, lng]
	Zoom   float64    `json:"zoom"`
}

// Direction is a pan direction.
type Direction int

const (
	PanUp Direction = iota
	PanDown
	PanLeft
	PanRight
)

// SetHome sets the home view to the bounds of the selected zone.
func (s *Surface) SetHome(b geo.Bounds) {
	s.mu.Lock()
	s.homeBounds = &b
	s.home = fitView(b, b)
	s.mu.Unlock()
}

// View returns the current viewport.
func (s *Surface) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetView moves the viewport, clamping the zoom.
func (s *Surface) SetView(v View) View {
	v.Zoom = clampZoom(v.Zoom)
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	s.publish([]Op{{Kind: OpView, View: &v}})
	return v
}

// Home returns to the zone view.
func (s *Surface) Home() View {
	s.mu.Lock()
	v := s.home
	s.mu.Unlock()
	return s.SetView(v)
}

// Fit zooms to the bounds of every visible layer, falling back to home when
// nothing is drawn.
func (s *Surface) Fit() View {
	s.mu.Lock()
	var (
		b  geo.Bounds
		ok bool
	)
	for _, l := range s.layers {
		if l.state != StateVisible {
			continue
		}
		lb, has := shapeBounds(l.shape.Center, l.shape.Radius, l.shape.LatLngs)
		if !has {
			continue
		}
		if !ok {
			b, ok = lb, true
			continue
		}
		b = b.Union(lb)
	}
	ref := b
	if s.homeBounds != nil {
		ref = *s.homeBounds
	}
	home := s.home
	s.mu.Unlock()

	if !ok {
		return s.SetView(home)
	}
	return s.SetView(fitView(b, ref))
}

// Pan moves the centre one step in dir.
func (s *Surface) Pan(dir Direction) View {
	s.mu.Lock()
	v := s.view
	span := 1.0
	if s.homeBounds != nil {
		span = math.Max(s.homeBounds.MaxX-s.homeBounds.MinX, s.homeBounds.MaxY-s.homeBounds.MinY)
	}
	s.mu.Unlock()

	step := span * panFraction / math.Pow(2, v.Zoom)
	switch dir {
	case PanUp:
		v.Center[0] += step
	case PanDown:
		v.Center[0] -= step
	case PanLeft:
		v.Center[1] -= step
	case PanRight:
		v.Center[1] += step
	}
	return s.SetView(v)
}

// Zoom changes the zoom level by delta.
func (s *Surface) Zoom(delta float64) View {
	v := s.View()
	v.Zoom += delta
	return s.SetView(v)
}

// HandleKey applies a keyboard shortcut. It reports whether the key is bound.
func (s *Surface) HandleKey(key string) (View, bool) {
	switch key {
	case "h", "H":
		return s.Home(), true
	case "f", "F":
		return s.Fit(), true
	case "ArrowUp":
		return s.Pan(PanUp), true
	case "ArrowDown":
		return s.Pan(PanDown), true
	case "ArrowLeft":
		return s.Pan(PanLeft), true
	case "ArrowRight":
		return s.Pan(PanRight), true
	case "+", "=":
		return s.Zoom(1), true
	case "-", "_":
		return s.Zoom(-1), true
	default:
		return s.View(), false
	}
}

// ApplyPreferences restores saved visibility and viewport.
func (s *Surface) ApplyPreferences(p models.MapPreferences) {
	s.SetGroupVisible(GroupStatic, p.ShowStatic)
	s.SetGroupVisible(GroupPortable, p.ShowPortable)
	if p.Zoom != 0 || p.CenterX != 0 || p.CenterY != 0 {
		ll := geo.LatLngOf(models.Point3{X: p.CenterX, Y: p.CenterY})
		s.SetView(View{Center: [2]float64{ll.Lat, ll.Lng}, Zoom: p.Zoom})
	}
}

// Preferences folds the current visibility and viewport into p.
func (s *Surface) Preferences(p models.MapPreferences) models.MapPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ShowStatic = s.shown[GroupStatic]
	p.ShowPortable = s.shown[GroupPortable]
	pt := geo.PointOf(geo.LatLng{Lat: s.view.Center[0], Lng: s.view.Center[1]})
	p.CenterX, p.CenterY = pt.X, pt.Y
	p.Zoom = s.view.Zoom
	return p
}

// fitView centres on b and picks the zoom at which b spans the same extent
// as ref does at zoom 0.
func fitView(b, ref geo.Bounds) View {
	c := geo.LatLngOf(b.Center())
	v := View{Center: [2]float64{c.Lat, c.Lng}}
	span := math.Max(b.MaxX-b.MinX, b.MaxY-b.MinY)
	refSpan := math.Max(ref.MaxX-ref.MinX, ref.MaxY-ref.MinY)
	if span > 0 && refSpan > 0 {
		v.Zoom = clampZoom(math.Floor(math.Log2(refSpan / span)))
	}
	return v
}

func clampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 0
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// shapeBounds returns the x/y box of a circle or polygon given in lat/lng.
func shapeBounds(center *[2]float64, radius float64, latLngs [][2]float64) (geo.Bounds, bool) {
	if center != nil {
		x, y := center[1], center[0]
		return geo.Bounds{MinX: x - radius, MinY: y - radius, MaxX: x + radius, MaxY: y + radius}, true
	}
	pts := make([]models.Point3, len(latLngs))
	for i, ll := range latLngs {
		pts[i] = geo.PointOf(geo.LatLng{Lat: ll[0], Lng: ll[1]})
	}
	return geo.BoundsOf(pts)
}
