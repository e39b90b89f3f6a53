// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package mapsurface

import (
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

// Snapshot exports the visible layers as a GeoJSON feature collection in
// facility x/y coordinates. Polygons are closed rings; circles are points
// carrying a radius property.
func (s *Surface) Snapshot() *geojson.FeatureCollection {
	s.mu.Lock()
	keys := make([]layerKey, 0, len(s.layers))
	for k, l := range s.layers {
		if l.state == StateVisible {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].group != keys[j].group {
			return keys[i].group > keys[j].group
		}
		return keys[i].id < keys[j].id
	})

	fc := geojson.NewFeatureCollection()
	for _, k := range keys {
		shape := s.layers[k].shape

		var f *geojson.Feature
		if shape.Center != nil {
			f = geojson.NewPointFeature([]float64{shape.Center[1], shape.Center[0]})
			f.SetProperty("radius", shape.Radius)
			f.SetProperty("contained", shape.IsContained)
		} else {
			ring := make([][]float64, 0, len(shape.LatLngs)+1)
			for _, ll := range shape.LatLngs {
				ring = append(ring, []float64{ll[1], ll[0]})
			}
			if len(ring) > 0 && (ring[0][0] != ring[len(ring)-1][0] || ring[0][1] != ring[len(ring)-1][1]) {
				ring = append(ring, ring[0])
			}
			f = geojson.NewPolygonFeature([][][]float64{ring})
		}
		f.ID = shape.ID
		f.SetProperty("group", string(k.group))
		f.SetProperty("name", shape.Name)
		f.SetProperty("uniqueKey", shape.UniqueKey)
		f.SetProperty("color", shape.Style.Color)
		f.SetProperty("highlighted", shape.IsHighlighted)
		fc.AddFeature(f)
	}
	s.mu.Unlock()
	return fc
}
