// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package ingest

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/tagwatch/internal/metrics"
	"github.com/tomtom215/tagwatch/internal/models"
)

// TagCache holds the last known position of every tag.
type TagCache struct {
	mu      sync.RWMutex
	tags    map[string]models.TagPosition
	version uint64
}

// NewTagCache creates an empty cache.
func NewTagCache() *TagCache {
	return &TagCache{tags: make(map[string]models.TagPosition)}
}

// Apply replaces the record of every tag in batch, in order, and bumps the
// version once. It returns the new version.
func (c *TagCache) Apply(batch []models.TagPosition) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range batch {
		c.tags[p.ID] = p
	}
	c.version++
	metrics.TagsTracked.Set(float64(len(c.tags)))
	return c.version
}

// Get returns the record for id.
func (c *TagCache) Get(id string) (models.TagPosition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.tags[id]
	return p, ok
}

// Len returns the number of tags held.
func (c *TagCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tags)
}

// Version returns the current version.
func (c *TagCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Snapshot copies the cache.
func (c *TagCache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tags := make(map[string]models.TagPosition, len(c.tags))
	for id, p := range c.tags {
		tags[id] = p
	}
	return Snapshot{Version: c.version, tags: tags}
}

// Sweep drops tags not heard from since now-expiry and returns their IDs.
func (c *TagCache) Sweep(now time.Time, expiry time.Duration) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := now.Add(-expiry)
	var removed []string
	for id, p := range c.tags {
		if p.ReceivedAt.Before(cutoff) {
			delete(c.tags, id)
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		c.version++
		metrics.TagsTracked.Set(float64(len(c.tags)))
	}
	sort.Strings(removed)
	return removed
}

// Clear drops every tag.
func (c *TagCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tags) == 0 {
		return
	}
	c.tags = make(map[string]models.TagPosition)
	c.version++
	metrics.TagsTracked.Set(0)
}

// Snapshot is an immutable copy of the cache at one version.
type Snapshot struct {
	Version uint64
	tags    map[string]models.TagPosition
}

// Get returns the record for id.
func (s Snapshot) Get(id string) (models.TagPosition, bool) {
	p, ok := s.tags[id]
	return p, ok
}

// Len returns the number of tags in the snapshot.
func (s Snapshot) Len() int { return len(s.tags) }

// Positions returns the records sorted by tag ID.
func (s Snapshot) Positions() []models.TagPosition {
	out := make([]models.TagPosition, 0, len(s.tags))
	for _, p := range s.tags {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
