// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package geo

import (
	"bytes"
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tagwatch/internal/models"
)

// Coordinate is one of Pair, Triple, LatLng, XY, or XYZ.
type Coordinate interface {
	isCoordinate()
}

// Pair is an [x, y] array.
type Pair [2]float64

// Triple is an [x, y, z] array.
type Triple [3]float64

// LatLng is a Leaflet CRS.Simple coordinate: Lat is y, Lng is x.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// XY is an {x, y} object.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// XYZ is an {x, y, z} object.
type XYZ struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (Pair) isCoordinate()   {}
func (Triple) isCoordinate() {}
func (LatLng) isCoordinate() {}
func (XY) isCoordinate()     {}
func (XYZ) isCoordinate()    {}

// ShapeError reports a coordinate that matches none of the known shapes.
type ShapeError struct {
	Raw    string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unrecognized coordinate shape %s: %s", e.Raw, e.Reason)
}

// Normalize converts any Coordinate into a facility point.
func Normalize(c Coordinate) (models.Point3, error) {
	var p models.Point3
	switch v := c.(type) {
	case Pair:
		p = models.Point3{X: v[0], Y: v[1]}
	case Triple:
		p = models.Point3{X: v[0], Y: v[1], Z: v[2]}
	case LatLng:
		p = PointOf(v)
	case XY:
		p = models.Point3{X: v.X, Y: v.Y}
	case XYZ:
		p = models.Point3(v)
	case nil:
		return models.Point3{}, &ShapeError{Raw: "null", Reason: "nil coordinate"}
	default:
		return models.Point3{}, &ShapeError{Raw: fmt.Sprintf("%T", c), Reason: "unsupported variant"}
	}
	if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
		return models.Point3{}, &ShapeError{Raw: fmt.Sprintf("%v", p), Reason: "non-finite component"}
	}
	return p, nil
}

// Decode parses raw JSON into the matching Coordinate variant.
func Decode(raw []byte) (Coordinate, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, &ShapeError{Raw: "", Reason: "empty"}
	}

	switch raw[0] {
	case '[':
		var arr []float64
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, &ShapeError{Raw: string(raw), Reason: err.Error()}
		}
		switch len(arr) {
		case 2:
			return Pair{arr[0], arr[1]}, nil
		case 3:
			return Triple{arr[0], arr[1], arr[2]}, nil
		default:
			return nil, &ShapeError{Raw: string(raw), Reason: fmt.Sprintf("array of length %d", len(arr))}
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, &ShapeError{Raw: string(raw), Reason: err.Error()}
		}
		return decodeObject(raw, obj)
	default:
		return nil, &ShapeError{Raw: string(raw), Reason: "not an array or object"}
	}
}

func decodeObject(raw []byte, obj map[string]json.RawMessage) (Coordinate, error) {
	_, hasLat := obj["lat"]
	_, hasLng := obj["lng"]
	_, hasX := obj["x"]
	_, hasY := obj["y"]
	_, hasZ := obj["z"]

	switch {
	case hasLat && hasLng:
		var ll LatLng
		if err := json.Unmarshal(raw, &ll); err != nil {
			return nil, &ShapeError{Raw: string(raw), Reason: err.Error()}
		}
		return ll, nil
	case hasX && hasY && hasZ:
		var p XYZ
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ShapeError{Raw: string(raw), Reason: err.Error()}
		}
		return p, nil
	case hasX && hasY:
		var p XY
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ShapeError{Raw: string(raw), Reason: err.Error()}
		}
		return p, nil
	default:
		return nil, &ShapeError{Raw: string(raw), Reason: "object needs lat/lng or x/y"}
	}
}

// DecodePoints decodes a JSON array of coordinates of any supported shape.
func DecodePoints(raw []byte) ([]models.Point3, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ShapeError{Raw: string(raw), Reason: "expected an array of coordinates"}
	}
	out := make([]models.Point3, 0, len(items))
	for i, item := range items {
		c, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
		p, err := Normalize(c)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// LatLngOf maps a facility point into CRS.Simple.
func LatLngOf(p models.Point3) LatLng {
	return LatLng{Lat: p.Y, Lng: p.X}
}

// PointOf maps a CRS.Simple coordinate back to facility x/y.
func PointOf(ll LatLng) models.Point3 {
	return models.Point3{X: ll.Lng, Y: ll.Lat}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
