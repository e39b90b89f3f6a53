// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

// Package registry holds the trigger and zone lists fetched from the RTLS.
// Readers get copies; a reload swaps the whole list and bumps the version.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/models"
)

// ErrTriggerNotFound is returned by lookups for unknown IDs.
var ErrTriggerNotFound = errors.New("trigger not found")

// Source is the subset of the RTLS client the registry reads from.
type Source interface {
	ListTriggers(ctx context.Context) ([]models.Trigger, error)
	ListZones(ctx context.Context) ([]models.Zone, error)
}

// Registry caches triggers and zones.
type Registry struct {
	src        Source
	retries    int
	retryDelay time.Duration

	mu       sync.RWMutex
	triggers map[int]models.Trigger
	zones    map[int]models.Zone
	version  uint64

	listenersMu sync.Mutex
	listeners   []func()
}

// New creates an empty registry. Reloads try up to retries times with
// retryDelay between attempts.
func New(src Source, retries int, retryDelay time.Duration) *Registry {
	if retries < 1 {
		retries = 1
	}
	return &Registry{
		src:        src,
		retries:    retries,
		retryDelay: retryDelay,
		triggers:   make(map[int]models.Trigger),
		zones:      make(map[int]models.Zone),
	}
}

// OnChange registers fn to run after every change to the trigger list.
func (r *Registry) OnChange(fn func()) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) notify() {
	r.listenersMu.Lock()
	fns := append([]func(){}, r.listeners...)
	r.listenersMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ReloadTriggers refetches the trigger list, retrying transient failures.
func (r *Registry) ReloadTriggers(ctx context.Context) error {
	var list []models.Trigger
	err := r.retry(ctx, "reload triggers", func() error {
		var err error
		list, err = r.src.ListTriggers(ctx)
		return err
	})
	if err != nil {
		return err
	}

	next := make(map[int]models.Trigger, len(list))
	for _, t := range list {
		next[t.TriggerID] = t
	}

	r.mu.Lock()
	r.triggers = next
	r.version++
	r.mu.Unlock()

	logging.Debug().Int("triggers", len(next)).Msg("trigger list reloaded")
	r.notify()
	return nil
}

// ReloadZones refetches the zone list.
func (r *Registry) ReloadZones(ctx context.Context) error {
	var list []models.Zone
	err := r.retry(ctx, "reload zones", func() error {
		var err error
		list, err = r.src.ListZones(ctx)
		return err
	})
	if err != nil {
		return err
	}

	next := make(map[int]models.Zone, len(list))
	for _, z := range list {
		next[z.ZoneID] = z
	}

	r.mu.Lock()
	r.zones = next
	r.mu.Unlock()
	return nil
}

func (r *Registry) retry(ctx context.Context, what string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= r.retries; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		logging.Warn().Err(lastErr).Int("attempt", attempt).Int("max_attempts", r.retries).Msgf("%s failed", what)
		if attempt == r.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.retryDelay):
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, r.retries, lastErr)
}

// Trigger looks up a trigger by ID.
func (r *Registry) Trigger(id int) (models.Trigger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.triggers[id]
	return t, ok
}

// Triggers returns every trigger ordered by ID.
func (r *Registry) Triggers() []models.Trigger {
	r.mu.RLock()
	out := make([]models.Trigger, 0, len(r.triggers))
	for _, t := range r.triggers {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TriggerID < out[j].TriggerID })
	return out
}

// TriggersForZone returns triggers that apply to tags in zoneID, ordered by ID.
func (r *Registry) TriggersForZone(zoneID int) []models.Trigger {
	all := r.Triggers()
	out := all[:0]
	for _, t := range all {
		if t.AppliesToZone(zoneID) {
			out = append(out, t)
		}
	}
	return out
}

// HasTriggerNamed reports whether a trigger already uses name.
func (r *Registry) HasTriggerNamed(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.triggers {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Upsert stores t locally without a reload.
func (r *Registry) Upsert(t models.Trigger) {
	r.mu.Lock()
	r.triggers[t.TriggerID] = t
	r.version++
	r.mu.Unlock()
	r.notify()
}

// Remove drops a trigger locally.
func (r *Registry) Remove(id int) error {
	r.mu.Lock()
	if _, ok := r.triggers[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTriggerNotFound, id)
	}
	delete(r.triggers, id)
	r.version++
	r.mu.Unlock()
	r.notify()
	return nil
}

// Version increments on every trigger list change.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Zone looks up a zone.
func (r *Registry) Zone(id int) (models.Zone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	z, ok := r.zones[id]
	return z, ok
}

// ZoneName returns the zone's name, or "" when unknown.
func (r *Registry) ZoneName(id int) string {
	z, _ := r.Zone(id)
	return z.Name
}

// Zones returns every zone ordered by ID.
func (r *Registry) Zones() []models.Zone {
	r.mu.RLock()
	out := make([]models.Zone, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	return out
}
