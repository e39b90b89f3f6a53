// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package rtls

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/models"
)

// TriggerDetail is the geometry of one trigger.
type TriggerDetail struct {
	TriggerID int
	Vertices  []models.Point3
	ZMin      *float64
	ZMax      *float64
}

// ListTriggers returns every configured trigger.
func (c *Client) ListTriggers(ctx context.Context) ([]models.Trigger, error) {
	var triggers []models.Trigger
	if err := c.getJSON(ctx, "list_triggers", "/api/list_newtriggers", nil, &triggers); err != nil {
		return nil, err
	}
	return triggers, nil
}

// ListDirections returns the direction lookup table.
func (c *Client) ListDirections(ctx context.Context) ([]models.DirectionInfo, error) {
	var dirs []models.DirectionInfo
	if err := c.getJSON(ctx, "list_directions", "/api/get_trigger_directions", nil, &dirs); err != nil {
		return nil, err
	}
	return dirs, nil
}

// GetTrigger fetches the vertex ring of a trigger. Vertices may arrive in any
// coordinate shape the RTLS has used over time; they are normalized here.
func (c *Client) GetTrigger(ctx context.Context, triggerID int) (*TriggerDetail, error) {
	var raw struct {
		TriggerID int             `json:"trigger_id"`
		Vertices  json.RawMessage `json:"vertices"`
		ZMin      *float64        `json:"z_min"`
		ZMax      *float64        `json:"z_max"`
	}
	path := "/api/get_trigger_details/" + strconv.Itoa(triggerID)
	if err := c.getJSON(ctx, "get_trigger", path, nil, &raw); err != nil {
		return nil, err
	}

	detail := &TriggerDetail{TriggerID: triggerID, ZMin: raw.ZMin, ZMax: raw.ZMax}
	if len(raw.Vertices) == 0 || string(raw.Vertices) == "null" {
		return detail, nil
	}
	pts, err := geo.DecodePoints(raw.Vertices)
	if err != nil {
		return nil, fmt.Errorf("get_trigger %d: %w", triggerID, err)
	}
	detail.Vertices = pts
	return detail, nil
}

// CreateTrigger creates a trigger and returns its ID.
func (c *Client) CreateTrigger(ctx context.Context, draft models.TriggerDraft) (int, error) {
	body, err := c.do(ctx, request{
		op:     "create_trigger",
		method: http.MethodPost,
		path:   "/api/add_trigger",
		body:   draft,
	})
	if err != nil {
		return 0, err
	}
	var resp struct {
		TriggerID int `json:"trigger_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("create_trigger: decode response: %w", err)
	}
	return resp.TriggerID, nil
}

// DeleteTrigger removes a trigger.
func (c *Client) DeleteTrigger(ctx context.Context, triggerID int) error {
	_, err := c.do(ctx, request{
		op:     "delete_trigger",
		method: http.MethodDelete,
		path:   "/api/delete_trigger/" + strconv.Itoa(triggerID),
	})
	return err
}

// MoveTrigger translates a trigger to a new reference point.
func (c *Client) MoveTrigger(ctx context.Context, triggerID int, to models.Point3) error {
	q := url.Values{}
	q.Set("new_x", strconv.FormatFloat(to.X, 'f', -1, 64))
	q.Set("new_y", strconv.FormatFloat(to.Y, 'f', -1, 64))
	q.Set("new_z", strconv.FormatFloat(to.Z, 'f', -1, 64))
	_, err := c.do(ctx, request{
		op:     "move_trigger",
		method: http.MethodPut,
		path:   "/api/move_trigger/" + strconv.Itoa(triggerID),
		query:  q,
	})
	return err
}

// PointInTrigger asks the RTLS whether a point is inside a static trigger.
// A missing or non-boolean "contains" field is an error.
func (c *Client) PointInTrigger(ctx context.Context, triggerID int, x, y, z float64) (bool, error) {
	var resp map[string]json.RawMessage
	path := "/api/trigger_contains_point/" + strconv.Itoa(triggerID)
	if err := c.getJSON(ctx, "point_in_trigger", path, pointQuery(x, y, z), &resp); err != nil {
		return false, err
	}

	raw, ok := resp["contains"]
	if !ok {
		return false, fmt.Errorf("point_in_trigger %d: response has no contains field", triggerID)
	}
	var contains bool
	if err := json.Unmarshal(raw, &contains); err != nil {
		return false, fmt.Errorf("point_in_trigger %d: contains is not a boolean: %s", triggerID, raw)
	}
	return contains, nil
}
