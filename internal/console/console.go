// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/containment"
	"github.com/tomtom215/tagwatch/internal/eventlog"
	"github.com/tomtom215/tagwatch/internal/geometry"
	"github.com/tomtom215/tagwatch/internal/ingest"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/mapsurface"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/registry"
	"github.com/tomtom215/tagwatch/internal/stream"
	"github.com/tomtom215/tagwatch/internal/websocket"
)

// RTLS is the REST surface of the location server the console uses.
type RTLS interface {
	registry.Source
	containment.Checker
	geometry.DetailSource
	ZoneVertices(ctx context.Context, zoneID int) (*models.ZoneBounds, error)
	CreateTrigger(ctx context.Context, draft models.TriggerDraft) (int, error)
	DeleteTrigger(ctx context.Context, triggerID int) error
	MoveTrigger(ctx context.Context, triggerID int, to models.Point3) error
}

// Session is the RTLS stream session.
type Session interface {
	Connect(ctx context.Context, tagIDs []string, zoneID int) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	Status() stream.Status
}

// SessionFactory builds the session that reports to h.
type SessionFactory func(h stream.Handler) (Session, error)

// Store persists system events and map preferences.
type Store interface {
	eventlog.Store
	LoadPreferences(ctx context.Context) (models.MapPreferences, error)
	SavePreferences(ctx context.Context, prefs models.MapPreferences) error
}

// Broadcaster pushes updates to operator browsers.
type Broadcaster interface {
	BroadcastMapOps(ops interface{})
	BroadcastTriggerEvent(event interface{})
	BroadcastSystemEvent(text string)
	BroadcastConnectionState(from, to string, connected bool)
	BroadcastZoneMismatch(data websocket.ZoneMismatchData)
	BroadcastHighlight(triggerID int)
}

// Console owns every pipeline component of one operator console.
type Console struct {
	cfg      config.Config
	rtls     RTLS
	session  Session
	store    Store
	ui       Broadcaster
	registry *registry.Registry
	tags     *ingest.TagCache
	ingest   *ingest.Ingestor
	engine   *containment.Engine
	events   *eventlog.Log
	static   *geometry.StaticRenderer
	portable *geometry.PortableRenderer
	surface  *mapsurface.Surface
	logger   *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	zoneID int
	tagIDs []string
	prefs  models.MapPreferences

	// renderMu serializes static renders; lastRender is the fingerprint of
	// the trigger list and zone they were built from.
	renderMu   sync.Mutex
	lastRender string
}

// New builds the console. newSession is called once with the console as the
// stream handler.
func New(cfg config.Config, rtls RTLS, store Store, ui Broadcaster, newSession SessionFactory) (*Console, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Console{
		cfg:      cfg,
		rtls:     rtls,
		store:    store,
		ui:       ui,
		registry: registry.New(rtls, cfg.RTLS.ReloadRetries, cfg.RTLS.ReloadRetryDelay),
		tags:     ingest.NewTagCache(),
		logger:   logging.Component("console"),
		ctx:      ctx,
		cancel:   cancel,
		prefs:    models.DefaultMapPreferences(),
	}

	c.surface = mapsurface.New(func(ops []mapsurface.Op) { ui.BroadcastMapOps(ops) })
	c.events = eventlog.New(cfg.Events, store, eventlog.Hooks{
		OnTriggerEvent: func(e eventlog.Entry) { ui.BroadcastTriggerEvent(e) },
		OnSystemEvent:  ui.BroadcastSystemEvent,
		OnHighlight: func(id int) {
			c.surface.Highlight(id)
			ui.BroadcastHighlight(id)
		},
	})
	c.engine = containment.New(cfg.Containment, rtls, c.registry, c.tags, func(ev models.TriggerEvent) {
		c.events.AddTriggerEvent(c.ctx, ev)
	}, cfg.Events.Show)
	c.ingest = ingest.New(cfg.Ingest, c.tags, c.onFlush, c.onZoneMismatch)
	c.static = geometry.NewStaticRenderer(rtls)
	c.portable = geometry.NewPortableRenderer(cfg.Render,
		func() geometry.Positions { return c.tags.Snapshot() },
		c.engine.Portable().AnyInside,
		c.surface.SyncPortable,
	)
	c.registry.OnChange(func() {
		if err := c.renderStatic(c.ctx, false); err != nil {
			c.logger.Warn().Err(err).Msg("Static render failed")
		}
	})

	session, err := newSession(c)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stream session: %w", err)
	}
	c.session = session
	return c, nil
}

// Start restores persisted state and loads zones and triggers. Load
// failures are logged; the console starts with whatever it could get.
func (c *Console) Start(ctx context.Context) error {
	_ = c.events.Load(ctx)

	prefs, err := c.store.LoadPreferences(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Could not load map preferences, using defaults")
		prefs = models.DefaultMapPreferences()
	}
	c.mu.Lock()
	c.prefs = prefs
	if prefs.ZoneID != nil {
		c.zoneID = *prefs.ZoneID
	}
	c.mu.Unlock()
	c.engine.SetShowEvents(prefs.ShowEvents)
	c.surface.ApplyPreferences(prefs)

	if err := c.registry.ReloadZones(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Could not load zones")
	}
	if zoneID := c.Zone(); zoneID > 0 {
		c.updateHome(ctx, zoneID)
	}
	if err := c.registry.ReloadTriggers(ctx); err != nil {
		return fmt.Errorf("initial trigger load: %w", err)
	}
	return nil
}

// Close stops background timers and pipeline work.
func (c *Console) Close() {
	c.cancel()
	c.ingest.Stop()
	c.portable.Stop()
	c.engine.Wait()
	c.events.Close()
}

// Zone returns the selected zone, 0 when none.
func (c *Console) Zone() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoneID
}

// Registry exposes the trigger and zone lists.
func (c *Console) Registry() *registry.Registry { return c.registry }

// Events exposes the event log.
func (c *Console) Events() *eventlog.Log { return c.events }

// Surface exposes the map surface.
func (c *Console) Surface() *mapsurface.Surface { return c.surface }

// Ingestor exposes the ingest stage for supervision.
func (c *Console) Ingestor() *ingest.Ingestor { return c.ingest }

// PortableRenderer exposes the portable renderer for supervision.
func (c *Console) PortableRenderer() *geometry.PortableRenderer { return c.portable }

// onFlush runs one containment cycle and then refreshes portable geometry.
func (c *Console) onFlush(latest []models.TagPosition, snap ingest.Snapshot) {
	if c.ctx.Err() != nil {
		return
	}
	sum := c.engine.EvaluateCycle(c.ctx, latest, snap)
	c.logger.Trace().
		Int("tags", len(latest)).
		Int("pairs", sum.Pairs).
		Int("events", sum.Events).
		Int("errors", sum.Errors).
		Msg("Containment cycle done")
	c.portable.Poll()
}

func (c *Console) onZoneMismatch(m ingest.ZoneMismatch) {
	msg := fmt.Sprintf("Tag %s reports zone %s but %s is selected. Switch zones?",
		m.TagID, c.zoneLabel(m.ReportedZone), c.zoneLabel(m.SelectedZone))
	c.ui.BroadcastZoneMismatch(websocket.ZoneMismatchData{
		TagID:        m.TagID,
		ReportedZone: m.ReportedZone,
		SelectedZone: m.SelectedZone,
		Message:      msg,
	})
}

func (c *Console) zoneLabel(id int) string {
	if name := c.registry.ZoneName(id); name != "" {
		return fmt.Sprintf("%q (%d)", name, id)
	}
	return fmt.Sprintf("%d", id)
}

// OnPosition implements stream.Handler.
func (c *Console) OnPosition(msg stream.GISData) { c.ingest.OnMessage(msg) }

// OnTriggerEvent implements stream.Handler.
func (c *Console) OnTriggerEvent(msg stream.TriggerEvent) { c.engine.HandleServerEvent(msg) }

// OnStateChange implements stream.Handler.
func (c *Console) OnStateChange(from, to stream.State) {
	c.ui.BroadcastConnectionState(from.String(), to.String(), c.session != nil && c.session.IsConnected())
}

// OnSystemEvent implements stream.Handler.
func (c *Console) OnSystemEvent(text string) { c.events.AddSystemEvent(c.ctx, text) }

// OnReset implements stream.Handler. Positions are dropped on every reset;
// containment state only when the operator disconnected.
func (c *Console) OnReset(reason stream.ResetReason) {
	c.ingest.Reset()
	c.portable.Reset()
	if reason == stream.ResetManual {
		c.engine.Reset()
	}
	c.logger.Debug().Str("reason", string(reason)).Msg("Derived state reset")
}
