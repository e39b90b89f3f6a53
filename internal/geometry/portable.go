// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package geometry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/schedule"
)

// Positions looks up the last known position of a tag.
type Positions interface {
	Get(id string) (models.TagPosition, bool)
}

// PortableRenderer follows portable triggers around their assigned tags. It
// reads the local tag cache only.
//
// A move smaller than the threshold is ignored and withdraws any pending
// candidate. A larger move becomes a candidate that commits once no newer
// candidate arrived for the debounce period. The first sighting of a trigger
// commits at once; a trigger whose tag is no longer cached falls back to
// pending.
type PortableRenderer struct {
	cfg       config.RenderConfig
	positions func() Positions
	contained func(triggerID int) bool
	onChange  func([]Descriptor)
	logger    *zerolog.Logger

	mu         sync.Mutex
	triggers   map[int]models.Trigger
	committed  map[int]models.Point3
	candidate  map[int]models.Point3
	debouncers map[int]*schedule.Debouncer
	stopped    bool
	seq        uint64

	// pubMu orders delivery; lists built before the last published one are
	// dropped.
	pubMu     sync.Mutex
	published uint64
}

// NewPortableRenderer creates a renderer. positions returns the current tag
// cache view; contained reports whether any tag is inside a trigger; onChange
// receives the full descriptor list after every poll or commit.
func NewPortableRenderer(cfg config.RenderConfig, positions func() Positions, contained func(int) bool, onChange func([]Descriptor)) *PortableRenderer {
	if contained == nil {
		contained = func(int) bool { return false }
	}
	if onChange == nil {
		onChange = func([]Descriptor) {}
	}
	return &PortableRenderer{
		cfg:        cfg,
		positions:  positions,
		contained:  contained,
		onChange:   onChange,
		logger:     logging.Component("geometry"),
		triggers:   make(map[int]models.Trigger),
		committed:  make(map[int]models.Point3),
		candidate:  make(map[int]models.Point3),
		debouncers: make(map[int]*schedule.Debouncer),
	}
}

// SetTriggers replaces the trigger set and polls. Non-portable triggers are
// ignored; state of triggers that left the set is dropped.
func (r *PortableRenderer) SetTriggers(triggers []models.Trigger) {
	next := make(map[int]models.Trigger)
	for _, t := range triggers {
		if t.IsPortableCircle() {
			next[t.TriggerID] = t
		}
	}

	r.mu.Lock()
	for id := range r.triggers {
		if _, ok := next[id]; ok {
			continue
		}
		if d := r.debouncers[id]; d != nil {
			d.Stop()
			delete(r.debouncers, id)
		}
		delete(r.committed, id)
		delete(r.candidate, id)
	}
	for id, t := range next {
		if old, ok := r.triggers[id]; ok && old.AssignedTag() != t.AssignedTag() {
			// Reassigned to another tag: start over from its position.
			delete(r.committed, id)
			delete(r.candidate, id)
			if d := r.debouncers[id]; d != nil {
				d.Cancel()
			}
		}
	}
	r.triggers = next
	r.mu.Unlock()

	r.Poll()
}

// Poll compares every portable trigger against the tag cache and publishes
// the descriptors.
func (r *PortableRenderer) Poll() {
	pos := r.positions()

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	for id, t := range r.triggers {
		p, ok := pos.Get(t.AssignedTag())
		if !ok {
			if _, seen := r.committed[id]; seen {
				r.logger.Debug().Int("trigger_id", id).Str("tag", t.AssignedTag()).Msg("Portable trigger tag lost")
			}
			r.withdrawLocked(id)
			delete(r.committed, id)
			continue
		}
		at := models.Point3{X: p.X, Y: p.Y, Z: p.Z}

		last, seen := r.committed[id]
		if !seen {
			r.withdrawLocked(id)
			r.committed[id] = at
			continue
		}
		if geo.Distance3D(at, last) < r.cfg.MoveThreshold {
			r.withdrawLocked(id)
			continue
		}
		r.candidate[id] = at
		r.debouncerLocked(id).Trigger()
	}
	seq, out := r.snapshotLocked()
	r.mu.Unlock()

	r.publish(seq, out)
}

// withdrawLocked drops the pending candidate of a trigger and cancels its
// debounce.
func (r *PortableRenderer) withdrawLocked(id int) {
	delete(r.candidate, id)
	if d := r.debouncers[id]; d != nil {
		d.Cancel()
	}
}

func (r *PortableRenderer) snapshotLocked() (uint64, []Descriptor) {
	r.seq++
	return r.seq, r.descriptorsLocked()
}

// publish delivers out unless a newer list was already delivered.
func (r *PortableRenderer) publish(seq uint64, out []Descriptor) {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	if seq <= r.published {
		return
	}
	r.published = seq
	r.onChange(out)
}

func (r *PortableRenderer) debouncerLocked(id int) *schedule.Debouncer {
	d, ok := r.debouncers[id]
	if !ok {
		d = schedule.NewDebouncer(r.cfg.Debounce, func() { r.commit(id) })
		r.debouncers[id] = d
	}
	return d
}

func (r *PortableRenderer) commit(id int) {
	r.mu.Lock()
	at, ok := r.candidate[id]
	if !ok || r.stopped {
		r.mu.Unlock()
		return
	}
	if _, live := r.triggers[id]; !live {
		r.mu.Unlock()
		return
	}
	r.committed[id] = at
	delete(r.candidate, id)
	seq, out := r.snapshotLocked()
	r.mu.Unlock()

	r.logger.Trace().Int("trigger_id", id).Str("at", geo.PointKey(at)).Msg("Portable trigger moved")
	r.publish(seq, out)
}

// Descriptors returns the current circles, pending placeholders included.
func (r *PortableRenderer) Descriptors() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.descriptorsLocked()
}

func (r *PortableRenderer) descriptorsLocked() []Descriptor {
	out := make([]Descriptor, 0, len(r.triggers))
	for id, t := range r.triggers {
		d := Descriptor{ID: id, Name: t.Name, IsPortable: true}
		at, ok := r.committed[id]
		if !ok {
			d.Pending = true
			d.UniqueKey = PendingKey(id)
		} else {
			ll := geo.LatLngOf(at)
			d.Center = &[2]float64{ll.Lat, ll.Lng}
			d.Radius = t.RadiusOr(0)
			d.IsContained = r.contained(id)
			d.UniqueKey = PortableKey(id, at, d.Radius)
		}
		out = append(out, d.Restyled())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Serve polls on the configured interval until ctx is cancelled.
func (r *PortableRenderer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Stop()
			return ctx.Err()
		case <-ticker.C:
			r.Poll()
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (r *PortableRenderer) String() string { return "portable-renderer" }

// Reset cancels pending moves and forgets every committed position, so all
// triggers fall back to pending until their tags are seen again.
func (r *PortableRenderer) Reset() {
	r.mu.Lock()
	for _, d := range r.debouncers {
		d.Cancel()
	}
	r.committed = make(map[int]models.Point3)
	r.candidate = make(map[int]models.Point3)
	seq, out := r.snapshotLocked()
	r.mu.Unlock()

	r.publish(seq, out)
}

// Stop cancels every timer permanently.
func (r *PortableRenderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for _, d := range r.debouncers {
		d.Stop()
	}
}
