// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package console

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/goccy/go-json"
	geojson "github.com/paulmach/go.geojson"

	"github.com/tomtom215/tagwatch/internal/eventlog"
	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/ingest"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/mapsurface"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/stream"
	"github.com/tomtom215/tagwatch/internal/websocket"
)

// Status is the operator-facing state of the console.
type Status struct {
	Stream         stream.Status `json:"stream"`
	Ingest         ingest.Stats  `json:"ingest"`
	ZoneID         int           `json:"zone_id"`
	ZoneName       string        `json:"zone_name,omitempty"`
	ShowEvents     bool          `json:"show_events"`
	Triggers       int           `json:"triggers"`
	TriggerVersion uint64        `json:"trigger_version"`
	Highlighted    int           `json:"highlighted_trigger_id,omitempty"`
}

// MapState is the full map for a client that just arrived.
type MapState struct {
	View     mapsurface.View            `json:"view"`
	Layers   []mapsurface.LayerInfo     `json:"layers"`
	Features *geojson.FeatureCollection `json:"features"`
	Groups   map[mapsurface.Group]bool  `json:"groups"`
}

// Snapshot is sent to every newly registered UI client.
type Snapshot struct {
	Status       Status           `json:"status"`
	Map          MapState         `json:"map"`
	Recent       []eventlog.Entry `json:"recent_events"`
	SystemEvents []string         `json:"system_events"`
}

// Connect opens a session for tagIDs. zoneID 0 keeps the selected zone.
func (c *Console) Connect(ctx context.Context, tagIDs []string, zoneID int) error {
	if zoneID == 0 {
		zoneID = c.Zone()
	}
	if zoneID == 0 {
		return ErrNoZone
	}
	if zoneID != c.Zone() {
		if err := c.selectZone(ctx, zoneID); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.tagIDs = append([]string(nil), tagIDs...)
	c.mu.Unlock()

	c.ingest.Begin(tagIDs, zoneID)
	if err := c.session.Connect(ctx, tagIDs, zoneID); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	logging.Ctx(ctx).Info().Strs("tags", tagIDs).Int("zone_id", zoneID).Msg("Operator connected")
	return nil
}

// Disconnect ends the session and clears derived state.
func (c *Console) Disconnect(ctx context.Context) error {
	if err := c.session.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// SwitchZone selects zoneID. A live session is resubscribed for the new zone.
func (c *Console) SwitchZone(ctx context.Context, zoneID int) error {
	if zoneID <= 0 {
		return fmt.Errorf("%w: %d", ErrUnknownZone, zoneID)
	}
	if err := c.selectZone(ctx, zoneID); err != nil {
		return err
	}

	c.mu.Lock()
	tags := append([]string(nil), c.tagIDs...)
	c.mu.Unlock()

	c.ingest.SetZone(zoneID)
	if c.session.IsConnected() && len(tags) > 0 {
		c.ingest.Begin(tags, zoneID)
		if err := c.session.Connect(ctx, tags, zoneID); err != nil {
			return fmt.Errorf("resubscribe zone %d: %w", zoneID, err)
		}
	}
	c.events.AddSystemEvent(ctx, "Switched to zone "+c.zoneLabel(zoneID))
	return nil
}

// selectZone records the zone, reframes the map and re-renders geometry.
func (c *Console) selectZone(ctx context.Context, zoneID int) error {
	if len(c.registry.Zones()) > 0 {
		if _, ok := c.registry.Zone(zoneID); !ok {
			return fmt.Errorf("%w: %d", ErrUnknownZone, zoneID)
		}
	}

	c.mu.Lock()
	c.zoneID = zoneID
	c.prefs.ZoneID = models.IntPtr(zoneID)
	c.mu.Unlock()

	c.updateHome(ctx, zoneID)
	if err := c.renderStatic(ctx, false); err != nil {
		c.logger.Warn().Err(err).Int("zone_id", zoneID).Msg("Static render failed after zone switch")
	}
	c.savePreferences(ctx)
	return nil
}

// updateHome frames the map on the zone outline.
func (c *Console) updateHome(ctx context.Context, zoneID int) {
	zb, err := c.rtls.ZoneVertices(ctx, zoneID)
	if err != nil {
		c.logger.Warn().Err(err).Int("zone_id", zoneID).Msg("Could not load zone outline")
		return
	}
	if b, ok := geo.BoundsOf(zb.Vertices); ok {
		c.surface.SetHome(b)
	}
}

// Status reports the session, ingest counters and trigger list.
func (c *Console) Status() Status {
	zoneID := c.Zone()
	return Status{
		Stream:         c.session.Status(),
		Ingest:         c.ingest.Stats(),
		ZoneID:         zoneID,
		ZoneName:       c.registry.ZoneName(zoneID),
		ShowEvents:     c.engine.ShowEvents(),
		Triggers:       len(c.registry.Triggers()),
		TriggerVersion: c.registry.Version(),
		Highlighted:    c.events.Highlighted(),
	}
}

// SetShowEvents flips event emission. Containment keeps tracking state.
func (c *Console) SetShowEvents(ctx context.Context, show bool) {
	c.engine.SetShowEvents(show)
	c.mu.Lock()
	c.prefs.ShowEvents = show
	c.mu.Unlock()
	c.savePreferences(ctx)
}

// ReloadTriggers refetches the trigger list. Geometry is rebuilt only when
// the list changed.
func (c *Console) ReloadTriggers(ctx context.Context) error {
	if err := c.registry.ReloadTriggers(ctx); err != nil {
		return fmt.Errorf("reload triggers: %w", err)
	}
	return nil
}

// Refresh reloads zones and triggers. It is run periodically.
func (c *Console) Refresh(ctx context.Context) error {
	if err := c.registry.ReloadZones(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Zone refresh failed")
	}
	return c.ReloadTriggers(ctx)
}

// renderStatic rebuilds static polygons and hands the portable list to its
// renderer. Without force it does nothing when the triggers in scope and the
// zone are unchanged since the last render.
func (c *Console) renderStatic(ctx context.Context, force bool) error {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	zoneID := c.Zone()
	triggers := c.registry.Triggers()
	if zoneID > 0 {
		triggers = c.registry.TriggersForZone(zoneID)
	}

	fp, err := fingerprint(zoneID, triggers)
	if err != nil {
		return err
	}
	if !force && fp == c.lastRender {
		return nil
	}

	c.portable.SetTriggers(triggers)
	shapes, err := c.static.Render(ctx, triggers)
	if err != nil {
		return fmt.Errorf("render static triggers: %w", err)
	}
	c.surface.SyncStatic(shapes)
	c.lastRender = fp
	return nil
}

func fingerprint(zoneID int, triggers []models.Trigger) (string, error) {
	raw, err := json.Marshal(struct {
		Zone     int              `json:"zone"`
		Triggers []models.Trigger `json:"triggers"`
	}{zoneID, triggers})
	if err != nil {
		return "", fmt.Errorf("fingerprint triggers: %w", err)
	}
	h := fnv.New64a()
	_, _ = h.Write(raw)
	return strconv.FormatUint(h.Sum64(), 16), nil
}

// Preferences returns the saved settings with the live map state folded in.
func (c *Console) Preferences() models.MapPreferences {
	c.mu.Lock()
	p := c.prefs
	c.mu.Unlock()
	p.ShowEvents = c.engine.ShowEvents()
	return c.surface.Preferences(p)
}

// SetPreferences applies and persists p. A different zone is switched to.
func (c *Console) SetPreferences(ctx context.Context, p models.MapPreferences) error {
	if p.ZoneID != nil && *p.ZoneID != c.Zone() {
		if err := c.SwitchZone(ctx, *p.ZoneID); err != nil {
			return err
		}
	}
	c.engine.SetShowEvents(p.ShowEvents)
	c.surface.ApplyPreferences(p)

	c.mu.Lock()
	zone := c.prefs.ZoneID
	c.prefs = p
	c.prefs.ZoneID = zone
	c.mu.Unlock()

	c.savePreferences(ctx)
	return nil
}

func (c *Console) savePreferences(ctx context.Context) {
	if err := c.store.SavePreferences(ctx, c.Preferences()); err != nil {
		c.logger.Warn().Err(err).Msg("Could not save map preferences")
	}
}

// SetView moves the viewport.
func (c *Console) SetView(ctx context.Context, v mapsurface.View) mapsurface.View {
	out := c.surface.SetView(v)
	c.savePreferences(ctx)
	return out
}

// HandleMapKey applies a keyboard shortcut to the map.
func (c *Console) HandleMapKey(ctx context.Context, key string) (mapsurface.View, error) {
	v, ok := c.surface.HandleKey(key)
	if !ok {
		return v, fmt.Errorf("%w: %q", ErrUnknownMapKey, key)
	}
	c.savePreferences(ctx)
	return v, nil
}

// MapState returns the current layers and viewport.
func (c *Console) MapState() MapState {
	return MapState{
		View:     c.surface.View(),
		Layers:   c.surface.Layers(),
		Features: c.surface.Snapshot(),
		Groups: map[mapsurface.Group]bool{
			mapsurface.GroupStatic:   c.surface.GroupVisible(mapsurface.GroupStatic),
			mapsurface.GroupPortable: c.surface.GroupVisible(mapsurface.GroupPortable),
		},
	}
}

// ClearEvents drops the system event list, persisted copy included.
func (c *Console) ClearEvents(ctx context.Context) error {
	return c.events.Clear(ctx)
}

// SnapshotMessages is the hub's OnRegister callback.
func (c *Console) SnapshotMessages() []websocket.Message {
	return []websocket.Message{{
		Type: websocket.MessageTypeSnapshot,
		Data: Snapshot{
			Status:       c.Status(),
			Map:          c.MapState(),
			Recent:       c.events.Recent(),
			SystemEvents: c.events.SystemEvents(),
		},
	}}
}

// mapKeyData is the payload of an inbound map_key message.
type mapKeyData struct {
	Key string `json:"key"`
}

// HandleClientMessage is the hub's OnMessage callback.
func (c *Console) HandleClientMessage(clientID uint64, msg websocket.Inbound) {
	switch msg.Type {
	case websocket.MessageTypeMapKey:
		var data mapKeyData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.logger.Debug().Err(err).Uint64("client_id", clientID).Msg("Dropping malformed map_key")
			return
		}
		if _, err := c.HandleMapKey(c.ctx, data.Key); err != nil {
			c.logger.Debug().Err(err).Uint64("client_id", clientID).Msg("Ignoring map key")
		}
	default:
		c.logger.Debug().Str("type", msg.Type).Uint64("client_id", clientID).Msg("Ignoring client message")
	}
}

// RecentEvents returns the recent trigger events, oldest first.
func (c *Console) RecentEvents() []eventlog.Entry { return c.events.Recent() }

// SystemEvents returns the system event list, oldest first.
func (c *Console) SystemEvents() []string { return c.events.SystemEvents() }

// Triggers returns the known triggers ordered by ID.
func (c *Console) Triggers() []models.Trigger { return c.registry.Triggers() }

// Zones returns the known zones.
func (c *Console) Zones() []models.Zone { return c.registry.Zones() }
