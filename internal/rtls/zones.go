// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package rtls

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/models"
)

// ListZones returns every zone.
func (c *Client) ListZones(ctx context.Context) ([]models.Zone, error) {
	var zones []models.Zone
	if err := c.getJSON(ctx, "list_zones", "/api/get_zones", nil, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// ZoneHierarchy returns the zone tree.
func (c *Client) ZoneHierarchy(ctx context.Context) ([]models.ZoneNode, error) {
	var nodes []models.ZoneNode
	if err := c.getJSON(ctx, "zone_hierarchy", "/api/get_zone_hierarchy", nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// ZoneVertices returns the boundary polygon of a zone.
func (c *Client) ZoneVertices(ctx context.Context, zoneID int) (*models.ZoneBounds, error) {
	var raw struct {
		Vertices json.RawMessage `json:"vertices"`
		ZMin     float64         `json:"z_min"`
		ZMax     float64         `json:"z_max"`
	}
	path := "/api/get_zone_vertices/" + strconv.Itoa(zoneID)
	if err := c.getJSON(ctx, "zone_vertices", path, nil, &raw); err != nil {
		return nil, err
	}

	bounds := &models.ZoneBounds{ZoneID: zoneID, ZMin: raw.ZMin, ZMax: raw.ZMax}
	if len(raw.Vertices) > 0 && string(raw.Vertices) != "null" {
		pts, err := geo.DecodePoints(raw.Vertices)
		if err != nil {
			return nil, fmt.Errorf("zone_vertices %d: %w", zoneID, err)
		}
		bounds.Vertices = pts
	}
	return bounds, nil
}

// PointInZone returns the zones containing the point. An empty result means
// the point lies outside every zone.
func (c *Client) PointInZone(ctx context.Context, x, y, z float64) ([]models.Zone, error) {
	var resp struct {
		Zones []models.Zone `json:"zones"`
	}
	if err := c.getJSON(ctx, "point_in_zone", "/api/zones_by_point", pointQuery(x, y, z), &resp); err != nil {
		return nil, err
	}
	return resp.Zones, nil
}
