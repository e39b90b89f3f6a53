// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

// Package geo contains the planar geometry used by the trigger engine and the
// map surface.
//
// Facility coordinates are plain x/y/z values in site units. The browser map
// runs Leaflet in CRS.Simple, where a LatLng is (lat=y, lng=x); LatLngOf and
// PointOf convert between the two.
//
// Coordinates reach us in several shapes (arrays, {lat,lng}, {x,y}, {x,y,z}).
// They are decoded once into the Coordinate union and normalised by Normalize.
// Anything else is rejected with a *ShapeError.
package geo
