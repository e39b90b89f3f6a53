// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package containment

import (
	"sync"
	"time"

	"github.com/tomtom215/tagwatch/internal/models"
)

// Key identifies a (trigger, tag) pair.
type Key struct {
	TriggerID int
	TagID     string
}

// State is the remembered containment of one pair. The zero value means
// "outside, never crossed".
type State struct {
	Contains    bool       `json:"contains"`
	LastCrossAt *time.Time `json:"last_cross_at,omitempty"`
}

// StateStore holds pair states. Update is an atomic read-modify-write.
type StateStore struct {
	mu     sync.Mutex
	states map[Key]State
}

// NewStateStore creates an empty store.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[Key]State)}
}

// Get returns the state of k, or the zero State.
func (s *StateStore) Get(k Key) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[k]
}

// Update replaces the state of k with fn(previous) and returns both.
func (s *StateStore) Update(k Key, fn func(prev State) State) (prev, next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.states[k]
	next = fn(prev)
	s.states[k] = next
	return prev, next
}

// ForgetTrigger drops every pair of triggerID.
func (s *StateStore) ForgetTrigger(triggerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.states {
		if k.TriggerID == triggerID {
			delete(s.states, k)
		}
	}
}

// Len returns the number of pairs held.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Clear drops every pair.
func (s *StateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[Key]State)
}

// Decision is the outcome of a direction rule.
type Decision struct {
	Emit     bool
	Verb     models.Verb
	Crossing string // "Enter" or "Exit", OnCross only
	Crossed  bool
}

// Decide applies the direction rule to the previous and new containment.
func Decide(dir models.Direction, prev, next bool) Decision {
	flipped := prev != next
	switch dir {
	case models.DirectionWhileIn:
		return Decision{Emit: next, Verb: models.VerbIsInside, Crossed: flipped}
	case models.DirectionWhileOut:
		return Decision{Emit: !next, Verb: models.VerbIsOutside, Crossed: flipped}
	case models.DirectionOnCross:
		d := Decision{Emit: flipped, Verb: models.VerbCrossed, Crossed: flipped}
		if flipped {
			d.Crossing = "Exit"
			if next {
				d.Crossing = "Enter"
			}
		}
		return d
	case models.DirectionOnEnter:
		return Decision{Emit: !prev && next, Verb: models.VerbEntered, Crossed: flipped}
	case models.DirectionOnExit:
		return Decision{Emit: prev && !next, Verb: models.VerbExited, Crossed: flipped}
	default:
		return Decision{Crossed: flipped}
	}
}

// PortableMap records, per portable trigger, which tags are inside it. The
// renderers colour circles from it regardless of event suppression.
type PortableMap struct {
	mu sync.RWMutex
	m  map[int]map[string]bool
}

// NewPortableMap creates an empty map.
func NewPortableMap() *PortableMap {
	return &PortableMap{m: make(map[int]map[string]bool)}
}

// Set records whether tagID is inside triggerID.
func (p *PortableMap) Set(triggerID int, tagID string, contains bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tags, ok := p.m[triggerID]
	if !ok {
		tags = make(map[string]bool)
		p.m[triggerID] = tags
	}
	tags[tagID] = contains
}

// Contains reports whether tagID was last seen inside triggerID.
func (p *PortableMap) Contains(triggerID int, tagID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.m[triggerID][tagID]
}

// AnyInside reports whether any tag is inside triggerID.
func (p *PortableMap) AnyInside(triggerID int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, in := range p.m[triggerID] {
		if in {
			return true
		}
	}
	return false
}

// Forget drops triggerID.
func (p *PortableMap) Forget(triggerID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, triggerID)
}

// Clear drops everything.
func (p *PortableMap) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m = make(map[int]map[string]bool)
}
