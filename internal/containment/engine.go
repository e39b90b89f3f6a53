// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package containment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tagwatch/internal/cache"
	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/metrics"
	"github.com/tomtom215/tagwatch/internal/models"
)

// maxParallelChecks bounds the goroutines one cycle fans out to.
const maxParallelChecks = 8

var errNoRadius = errors.New("portable trigger has no radius")

// Checker answers the spatial questions delegated to the RTLS.
type Checker interface {
	PointInZone(ctx context.Context, x, y, z float64) ([]models.Zone, error)
	PointInTrigger(ctx context.Context, triggerID int, x, y, z float64) (bool, error)
}

// Triggers resolves trigger and zone metadata.
type Triggers interface {
	Trigger(id int) (models.Trigger, bool)
	TriggersForZone(zoneID int) []models.Trigger
	ZoneName(id int) string
}

// Positions looks up the last known position of a tag.
type Positions interface {
	Get(id string) (models.TagPosition, bool)
}

// EmitFunc receives emitted events.
type EmitFunc func(models.TriggerEvent)

// Check is one containment question.
type Check struct {
	TriggerID  int
	TagID      string
	Point      models.Point3
	Sequence   models.Sequence
	ZoneID     int
	IsPortable bool
}

// Outcome classifies how a check ended.
type Outcome string

const (
	OutcomeEvaluated Outcome = "ok"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeError     Outcome = "error"
)

// Result describes one finished check.
type Result struct {
	Outcome  Outcome
	Reason   string
	Contains bool
	Previous State
	Event    *models.TriggerEvent
	Err      error
}

// CycleSummary counts the results of one ingest cycle.
type CycleSummary struct {
	Pairs     int
	Evaluated int
	Skipped   int
	Errors    int
	Events    int
}

// Engine evaluates containment and emits events.
type Engine struct {
	cfg       config.ContainmentConfig
	checker   Checker
	triggers  Triggers
	positions Positions
	emit      EmitFunc
	limiter   *rate.Limiter
	states    *StateStore
	portable  *PortableMap
	dedup     *cache.LRU
	logger    *zerolog.Logger
	now       func() time.Time

	showEvents atomic.Bool
	inflight   sync.WaitGroup
}

// New creates an engine. positions backs CheckContainment; cycles pass their
// own snapshot.
func New(cfg config.ContainmentConfig, checker Checker, triggers Triggers, positions Positions, emit EmitFunc, showEvents bool) *Engine {
	limit := rate.Inf
	if cfg.PointCheckRate > 0 {
		limit = rate.Limit(cfg.PointCheckRate)
	}
	burst := cfg.PointCheckBurst
	if burst <= 0 {
		burst = 1
	}
	if emit == nil {
		emit = func(models.TriggerEvent) {}
	}

	e := &Engine{
		cfg:       cfg,
		checker:   checker,
		triggers:  triggers,
		positions: positions,
		emit:      emit,
		limiter:   rate.NewLimiter(limit, burst),
		states:    NewStateStore(),
		portable:  NewPortableMap(),
		dedup:     cache.NewLRU(cfg.DedupSize, cfg.DedupTTL),
		logger:    logging.Component("containment"),
		now:       time.Now,
	}
	e.showEvents.Store(showEvents)
	return e
}

// SetShowEvents flips the emission toggle. Containment state keeps updating
// while it is off.
func (e *Engine) SetShowEvents(show bool) { e.showEvents.Store(show) }

// ShowEvents returns the emission toggle.
func (e *Engine) ShowEvents() bool { return e.showEvents.Load() }

// States exposes the pair store.
func (e *Engine) States() *StateStore { return e.states }

// Portable exposes the portable containment map.
func (e *Engine) Portable() *PortableMap { return e.portable }

// CheckContainment evaluates one pair in the background. The sequence number
// is taken from the position source when the tag is known.
func (e *Engine) CheckContainment(ctx context.Context, triggerID int, tagID string, x, y, z float64, isPortable bool) {
	c := Check{
		TriggerID:  triggerID,
		TagID:      tagID,
		Point:      models.Point3{X: x, Y: y, Z: z},
		IsPortable: isPortable,
	}
	if p, ok := e.positions.Get(tagID); ok {
		c.Sequence = p.Sequence
		c.ZoneID = p.ZoneID
	}

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.Evaluate(ctx, c, e.positions)
	}()
}

// Wait blocks until background checks finish.
func (e *Engine) Wait() { e.inflight.Wait() }

// EvaluateCycle checks every (trigger, tag) pair in scope for the latest
// positions of one ingest flush. Each pair is evaluated once, against the
// state left by the previous cycle. It returns when all checks are done.
func (e *Engine) EvaluateCycle(ctx context.Context, latest []models.TagPosition, positions Positions) CycleSummary {
	var checks []Check
	for _, tag := range latest {
		for _, t := range e.triggers.TriggersForZone(tag.ZoneID) {
			if t.IsPortableCircle() && t.AssignedTag() == tag.ID {
				continue
			}
			checks = append(checks, Check{
				TriggerID:  t.TriggerID,
				TagID:      tag.ID,
				Point:      models.Point3{X: tag.X, Y: tag.Y, Z: tag.Z},
				Sequence:   tag.Sequence,
				ZoneID:     tag.ZoneID,
				IsPortable: t.IsPortable,
			})
		}
	}

	results := make([]Result, len(checks))
	var g errgroup.Group
	g.SetLimit(maxParallelChecks)
	for i, c := range checks {
		g.Go(func() error {
			results[i] = e.Evaluate(ctx, c, positions)
			return nil
		})
	}
	_ = g.Wait()

	sum := CycleSummary{Pairs: len(checks)}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeEvaluated:
			sum.Evaluated++
		case OutcomeSkipped:
			sum.Skipped++
		case OutcomeError:
			sum.Errors++
		}
		if r.Event != nil {
			sum.Events++
		}
	}
	return sum
}

// Evaluate runs one check synchronously. It never returns an error; failures
// are reported in the Result and logged.
func (e *Engine) Evaluate(ctx context.Context, c Check, positions Positions) Result {
	start := e.now()
	kind := "static"
	if c.IsPortable {
		kind = "portable"
	}

	r := e.evaluate(ctx, c, positions)

	metrics.RecordContainmentCheck(kind, string(r.Outcome), time.Since(start))
	switch r.Outcome {
	case OutcomeError:
		e.logger.Warn().Err(r.Err).
			Int("trigger_id", c.TriggerID).
			Str("tag", c.TagID).
			Msg("Containment check failed")
	case OutcomeSkipped:
		e.logger.Trace().
			Int("trigger_id", c.TriggerID).
			Str("tag", c.TagID).
			Str("reason", r.Reason).
			Msg("Containment check skipped")
	}
	return r
}

func (e *Engine) evaluate(ctx context.Context, c Check, positions Positions) Result {
	if e.cfg.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.CheckTimeout)
		defer cancel()
	}

	trig, ok := e.triggers.Trigger(c.TriggerID)
	if !ok {
		return Result{Outcome: OutcomeSkipped, Reason: "trigger not found"}
	}

	zones, err := e.checker.PointInZone(ctx, c.Point.X, c.Point.Y, c.Point.Z)
	if err != nil {
		return Result{Outcome: OutcomeError, Err: fmt.Errorf("point in zone: %w", err)}
	}
	if len(zones) == 0 {
		return Result{Outcome: OutcomeSkipped, Reason: "point outside every zone"}
	}

	var contains bool
	if c.IsPortable && trig.AssignedTag() != "" {
		anchor, ok := positions.Get(trig.AssignedTag())
		if !ok {
			return Result{Outcome: OutcomeSkipped, Reason: "assigned tag position unknown"}
		}
		if trig.Radius == nil || math.IsNaN(*trig.Radius) {
			return Result{Outcome: OutcomeError, Err: fmt.Errorf("trigger %d: %w", trig.TriggerID, errNoRadius)}
		}
		center := models.Point3{X: anchor.X, Y: anchor.Y, Z: anchor.Z}
		contains = geo.Distance3D(c.Point, center) <= *trig.Radius
	} else {
		if err := e.limiter.Wait(ctx); err != nil {
			return Result{Outcome: OutcomeError, Err: fmt.Errorf("rate limit: %w", err)}
		}
		contains, err = e.checker.PointInTrigger(ctx, trig.TriggerID, c.Point.X, c.Point.Y, c.Point.Z)
		if err != nil {
			return Result{Outcome: OutcomeError, Err: fmt.Errorf("point in trigger: %w", err)}
		}
	}

	now := e.now()
	var decision Decision
	prev, _ := e.states.Update(Key{TriggerID: c.TriggerID, TagID: c.TagID}, func(prev State) State {
		decision = Decide(trig.DirectionID, prev.Contains, contains)
		next := State{Contains: contains, LastCrossAt: prev.LastCrossAt}
		if trig.DirectionID == models.DirectionOnCross && decision.Crossed {
			at := now
			next.LastCrossAt = &at
		}
		return next
	})

	if c.IsPortable {
		e.portable.Set(c.TriggerID, c.TagID, contains)
	}

	r := Result{Outcome: OutcomeEvaluated, Contains: contains, Previous: prev}
	if !decision.Emit || !e.showEvents.Load() {
		return r
	}

	ev := models.TriggerEvent{
		TriggerID:   trig.TriggerID,
		TriggerName: trig.Name,
		TagID:       c.TagID,
		ZoneName:    e.zoneName(c.ZoneID, zones),
		Sequence:    c.Sequence,
		Direction:   trig.DirectionID,
		Verb:        decision.Verb,
		Crossing:    decision.Crossing,
		At:          now,
		Source:      models.SourceClient,
	}
	metrics.TriggerEvents.WithLabelValues(trig.DirectionID.String(), string(models.SourceClient)).Inc()
	e.emit(ev)
	r.Event = &ev
	return r
}

// zoneName prefers the tag's zone when the lookup confirmed it.
func (e *Engine) zoneName(tagZone int, zones []models.Zone) string {
	for _, z := range zones {
		if z.ZoneID == tagZone {
			if z.Name != "" {
				return z.Name
			}
			break
		}
	}
	if name := e.triggers.ZoneName(tagZone); name != "" {
		return name
	}
	return zones[0].Name
}

// ForgetTrigger drops all state of a deleted trigger.
func (e *Engine) ForgetTrigger(triggerID int) {
	e.states.ForgetTrigger(triggerID)
	e.portable.Forget(triggerID)
}

// Reset drops all containment state and the server-event replay window.
func (e *Engine) Reset() {
	e.states.Clear()
	e.portable.Clear()
	e.dedup.Clear()
}
