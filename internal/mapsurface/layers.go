// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package mapsurface

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/geometry"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/metrics"
)

// Group separates the two renderer outputs. Each group is reconciled on its
// own so an update to one never touches the other.
type Group string

const (
	GroupStatic   Group = "static"
	GroupPortable Group = "portable"
)

// LayerState is where a layer is in its lifecycle.
type LayerState string

const (
	StateAbsent  LayerState = "absent"
	StateVisible LayerState = "visible"
	StateHidden  LayerState = "hidden"
	StateRemoved LayerState = "removed"
)

// OpKind names a layer operation.
type OpKind string

const (
	OpCreate  OpKind = "create"
	OpUpdate  OpKind = "update"
	OpRestyle OpKind = "restyle"
	OpShow    OpKind = "show"
	OpHide    OpKind = "hide"
	OpRemove  OpKind = "remove"
	OpView    OpKind = "view"
)

// Op is one instruction for the map client.
type Op struct {
	Kind  OpKind               `json:"op"`
	Group Group                `json:"group,omitempty"`
	ID    int                  `json:"id,omitempty"`
	Shape *geometry.Descriptor `json:"shape,omitempty"`
	Style *geometry.Style      `json:"style,omitempty"`
	View  *View                `json:"view,omitempty"`
}

// Sink receives the operations produced by one change, in order.
type Sink func(ops []Op)

// LayerInfo describes a live layer.
type LayerInfo struct {
	Group     Group      `json:"group"`
	ID        int        `json:"id"`
	State     LayerState `json:"state"`
	UniqueKey string     `json:"uniqueKey"`
}

type layerKey struct {
	group Group
	id    int
}

type layer struct {
	shape   geometry.Descriptor
	state   LayerState
	pending bool
}

// Surface is the layer table and viewport.
type Surface struct {
	sink   Sink
	logger *zerolog.Logger

	mu          sync.Mutex
	layers      map[layerKey]*layer
	shown       map[Group]bool
	highlighted int
	view        View
	home        View
	homeBounds  *geo.Bounds
}

// New creates an empty surface. A nil sink discards operations.
func New(sink Sink) *Surface {
	if sink == nil {
		sink = func([]Op) {}
	}
	return &Surface{
		sink:   sink,
		logger: logging.Component("mapsurface"),
		layers: make(map[layerKey]*layer),
		shown:  map[Group]bool{GroupStatic: true, GroupPortable: true},
		view:   View{Zoom: 0},
	}
}

// SyncStatic reconciles the static polygon layers.
func (s *Surface) SyncStatic(shapes []geometry.Descriptor) {
	s.sync(GroupStatic, shapes)
}

// SyncPortable reconciles the portable circle layers.
func (s *Surface) SyncPortable(shapes []geometry.Descriptor) {
	s.sync(GroupPortable, shapes)
}

func (s *Surface) sync(group Group, shapes []geometry.Descriptor) {
	s.mu.Lock()
	ops := s.reconcileLocked(group, shapes)
	s.mu.Unlock()
	s.publish(ops)
}

func (s *Surface) reconcileLocked(group Group, shapes []geometry.Descriptor) []Op {
	var ops []Op
	seen := make(map[int]bool, len(shapes))

	for _, d := range shapes {
		seen[d.ID] = true
		k := layerKey{group, d.ID}
		d.IsHighlighted = d.ID == s.highlighted
		d = d.Restyled()

		l, ok := s.layers[k]
		if !ok {
			if d.Pending {
				// Nothing to draw yet; the layer is created on first geometry.
				continue
			}
			l = &layer{shape: d, state: StateVisible}
			s.layers[k] = l
			shape := d
			ops = append(ops, Op{Kind: OpCreate, Group: group, ID: d.ID, Shape: &shape})
			if !s.shown[group] {
				l.state = StateHidden
				ops = append(ops, Op{Kind: OpHide, Group: group, ID: d.ID})
			}
			continue
		}

		l.pending = d.Pending
		if d.Pending {
			if l.state == StateVisible {
				l.state = StateHidden
				ops = append(ops, Op{Kind: OpHide, Group: group, ID: d.ID})
			}
			continue
		}

		switch {
		case l.shape.UniqueKey != d.UniqueKey:
			shape := d
			ops = append(ops, Op{Kind: OpUpdate, Group: group, ID: d.ID, Shape: &shape})
		case l.shape.Style != d.Style:
			style := d.Style
			ops = append(ops, Op{Kind: OpRestyle, Group: group, ID: d.ID, Style: &style})
		}
		l.shape = d
		if l.state == StateHidden && s.shown[group] {
			l.state = StateVisible
			ops = append(ops, Op{Kind: OpShow, Group: group, ID: d.ID})
		}
	}

	var gone []int
	for k := range s.layers {
		if k.group == group && !seen[k.id] {
			gone = append(gone, k.id)
		}
	}
	sort.Ints(gone)
	for _, id := range gone {
		delete(s.layers, layerKey{group, id})
		ops = append(ops, Op{Kind: OpRemove, Group: group, ID: id})
	}
	return ops
}

// Highlight restyles the layers of triggerID as highlighted; 0 clears the
// highlight.
func (s *Surface) Highlight(triggerID int) {
	s.mu.Lock()
	prev := s.highlighted
	s.highlighted = triggerID
	var ops []Op
	for k, l := range s.layers {
		if k.id != prev && k.id != triggerID {
			continue
		}
		l.shape.IsHighlighted = k.id == triggerID && triggerID != 0
		l.shape = l.shape.Restyled()
		style := l.shape.Style
		ops = append(ops, Op{Kind: OpRestyle, Group: k.group, ID: k.id, Style: &style})
	}
	s.mu.Unlock()

	sortOps(ops)
	s.publish(ops)
}

// SetGroupVisible shows or hides every layer of a group. Layers hidden
// because they are pending stay hidden.
func (s *Surface) SetGroupVisible(group Group, visible bool) {
	s.mu.Lock()
	if s.shown[group] == visible {
		s.mu.Unlock()
		return
	}
	s.shown[group] = visible
	var ops []Op
	for k, l := range s.layers {
		if k.group != group || l.pending {
			continue
		}
		switch {
		case visible && l.state == StateHidden:
			l.state = StateVisible
			ops = append(ops, Op{Kind: OpShow, Group: group, ID: k.id})
		case !visible && l.state == StateVisible:
			l.state = StateHidden
			ops = append(ops, Op{Kind: OpHide, Group: group, ID: k.id})
		}
	}
	s.mu.Unlock()

	sortOps(ops)
	s.publish(ops)
}

// GroupVisible reports whether a group is shown.
func (s *Surface) GroupVisible(group Group) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown[group]
}

// State returns the lifecycle state of a layer.
func (s *Surface) State(group Group, id int) LayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[layerKey{group, id}]
	if !ok {
		return StateAbsent
	}
	return l.state
}

// Layers lists every live layer ordered by group then ID.
func (s *Surface) Layers() []LayerInfo {
	s.mu.Lock()
	out := make([]LayerInfo, 0, len(s.layers))
	for k, l := range s.layers {
		out = append(out, LayerInfo{Group: k.group, ID: k.id, State: l.state, UniqueKey: l.shape.UniqueKey})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group > out[j].Group
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Clear removes every layer, emitting remove operations.
func (s *Surface) Clear() {
	s.mu.Lock()
	ops := make([]Op, 0, len(s.layers))
	for k := range s.layers {
		ops = append(ops, Op{Kind: OpRemove, Group: k.group, ID: k.id})
	}
	s.layers = make(map[layerKey]*layer)
	s.highlighted = 0
	s.mu.Unlock()

	sortOps(ops)
	s.publish(ops)
}

func (s *Surface) publish(ops []Op) {
	if len(ops) == 0 {
		return
	}
	for _, op := range ops {
		metrics.MapOps.WithLabelValues(string(op.Kind)).Inc()
	}
	s.logger.Trace().Int("ops", len(ops)).Msg("Publishing map operations")
	s.sink(ops)
}

func sortOps(ops []Op) {
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].Group != ops[j].Group {
			return ops[i].Group > ops[j].Group
		}
		return ops[i].ID < ops[j].ID
	})
}
