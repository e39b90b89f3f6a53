// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/rtls"
)

// CreateTrigger checks draft against local state and then creates it on the
// RTLS. The trigger list is reloaded on success.
func (c *Console) CreateTrigger(ctx context.Context, draft models.TriggerDraft) (models.Trigger, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if err := c.checkDraft(ctx, draft); err != nil {
		return models.Trigger{}, err
	}

	id, err := c.rtls.CreateTrigger(ctx, draft)
	if err != nil {
		if errors.Is(err, rtls.ErrDuplicateName) {
			return models.Trigger{}, fmt.Errorf("%w: %q", ErrDuplicateName, draft.Name)
		}
		if errors.Is(err, rtls.ErrBoundaryViolation) {
			return models.Trigger{}, fmt.Errorf("%w: %v", ErrOutsideZone, err)
		}
		return models.Trigger{}, fmt.Errorf("create trigger %q: %w", draft.Name, err)
	}

	t := models.Trigger{
		TriggerID:     id,
		Name:          draft.Name,
		DirectionID:   draft.DirectionID,
		ZoneID:        models.IntPtr(draft.ZoneID),
		IsPortable:    draft.IsPortable,
		AssignedTagID: draft.AssignedTagID,
		Radius:        draft.Radius,
		Vertices:      draft.Vertices,
		ZMin:          draft.ZMin,
		ZMax:          draft.ZMax,
	}
	if err := c.ReloadTriggers(ctx); err != nil {
		c.logger.Warn().Err(err).Int("trigger_id", id).Msg("Reload after create failed, adding locally")
		c.registry.Upsert(t)
	} else if stored, ok := c.registry.Trigger(id); ok {
		t = stored
	}

	logging.Ctx(ctx).Info().Int("trigger_id", id).Str("name", t.Name).Msg("Trigger created")
	c.events.AddSystemEvent(ctx, fmt.Sprintf("Created trigger %d (%s)", id, t.Name))
	return t, nil
}

// checkDraft enforces the rules the RTLS would reject: a polygon of at least
// three points inside the zone outline, and a name not already in use.
func (c *Console) checkDraft(ctx context.Context, draft models.TriggerDraft) error {
	if c.registry.HasTriggerNamed(draft.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, draft.Name)
	}
	if draft.IsPortable {
		return nil
	}
	if len(draft.Vertices) < 3 {
		return fmt.Errorf("%w (got %d)", ErrTooFewPoints, len(draft.Vertices))
	}

	zb, err := c.rtls.ZoneVertices(ctx, draft.ZoneID)
	if err != nil {
		return fmt.Errorf("load outline of zone %d: %w", draft.ZoneID, err)
	}
	if len(zb.Vertices) < 3 {
		return fmt.Errorf("%w: zone %d", ErrZoneBoundsAbsent, draft.ZoneID)
	}
	for i, v := range draft.Vertices {
		if !geo.PointInPolygon(v, zb.Vertices) {
			return fmt.Errorf("%w: point %d (%.2f, %.2f) is outside zone %d", ErrOutsideZone, i+1, v.X, v.Y, draft.ZoneID)
		}
	}
	if zb.ZMax > zb.ZMin {
		if draft.ZMin != nil && *draft.ZMin < zb.ZMin {
			return fmt.Errorf("%w: z_min %.2f is below the zone floor %.2f", ErrOutsideZone, *draft.ZMin, zb.ZMin)
		}
		if draft.ZMax != nil && *draft.ZMax > zb.ZMax {
			return fmt.Errorf("%w: z_max %.2f is above the zone ceiling %.2f", ErrOutsideZone, *draft.ZMax, zb.ZMax)
		}
	}
	return nil
}

// DeleteTrigger removes a trigger on the RTLS and forgets its state.
func (c *Console) DeleteTrigger(ctx context.Context, triggerID int) error {
	t, ok := c.registry.Trigger(triggerID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTriggerNotFound, triggerID)
	}
	if err := c.rtls.DeleteTrigger(ctx, triggerID); err != nil {
		return fmt.Errorf("delete trigger %d: %w", triggerID, err)
	}

	c.engine.ForgetTrigger(triggerID)
	if err := c.ReloadTriggers(ctx); err != nil {
		c.logger.Warn().Err(err).Int("trigger_id", triggerID).Msg("Reload after delete failed, removing locally")
		_ = c.registry.Remove(triggerID)
	}

	logging.Ctx(ctx).Info().Int("trigger_id", triggerID).Msg("Trigger deleted")
	c.events.AddSystemEvent(ctx, fmt.Sprintf("Deleted trigger %d (%s)", triggerID, t.Name))
	return nil
}

// MoveTrigger translates a static trigger to a new reference point.
func (c *Console) MoveTrigger(ctx context.Context, triggerID int, to models.Point3) error {
	t, ok := c.registry.Trigger(triggerID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTriggerNotFound, triggerID)
	}
	if t.IsPortable {
		return fmt.Errorf("%w: %d", ErrPortableMove, triggerID)
	}
	if err := c.rtls.MoveTrigger(ctx, triggerID, to); err != nil {
		if errors.Is(err, rtls.ErrBoundaryViolation) {
			return fmt.Errorf("%w: %v", ErrOutsideZone, err)
		}
		return fmt.Errorf("move trigger %d: %w", triggerID, err)
	}

	if err := c.ReloadTriggers(ctx); err != nil {
		c.logger.Warn().Err(err).Int("trigger_id", triggerID).Msg("Reload after move failed")
	}
	// The list entry may be unchanged while the vertices moved.
	if err := c.renderStatic(ctx, true); err != nil {
		c.logger.Warn().Err(err).Msg("Static render after move failed")
	}

	c.events.AddSystemEvent(ctx, fmt.Sprintf("Moved trigger %d (%s) to %s", triggerID, t.Name, geo.PointKey(to)))
	return nil
}
