// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tagwatch/internal/cache"
	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/metrics"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/schedule"
	"github.com/tomtom215/tagwatch/internal/stream"
)

// FlushFunc receives the latest position of each tag in a flushed batch, in
// first-arrival order, together with the cache snapshot taken right after the
// batch was applied.
type FlushFunc func(latest []models.TagPosition, snap Snapshot)

// ZoneMismatch describes a sample reported in a zone other than the selected one.
type ZoneMismatch struct {
	TagID        string `json:"tag_id"`
	ReportedZone int    `json:"reported_zone_id"`
	SelectedZone int    `json:"selected_zone_id"`
}

// Stats is a point-in-time view of ingest counters.
type Stats struct {
	Received uint64  `json:"received"`
	Rate     float64 `json:"rate"`
	Tags     int     `json:"tags"`
	Pending  int     `json:"pending"`
	Version  uint64  `json:"version"`
}

// Ingestor turns stream samples into throttled cache updates.
type Ingestor struct {
	cfg      config.IngestConfig
	cache    *TagCache
	rate     *cache.RateWindow
	throttle *schedule.Throttler
	onFlush  FlushFunc
	onZone   func(ZoneMismatch)
	logger   *zerolog.Logger
	now      func() time.Time

	mu         sync.Mutex
	pending    []models.TagPosition
	subscribed map[string]struct{}
	zoneID     int
	prompted   bool
	received   uint64

	flushMu sync.Mutex
}

// New creates an ingestor writing into tags. onFlush and onZone may be nil.
func New(cfg config.IngestConfig, tags *TagCache, onFlush FlushFunc, onZone func(ZoneMismatch)) *Ingestor {
	i := &Ingestor{
		cfg:        cfg,
		cache:      tags,
		rate:       cache.NewRateWindow(cfg.RateWindow),
		onFlush:    onFlush,
		onZone:     onZone,
		logger:     logging.Component("ingest"),
		now:        time.Now,
		subscribed: make(map[string]struct{}),
	}
	i.throttle = schedule.NewThrottler(cfg.ThrottleWindow, i.Flush)
	return i
}

// Cache returns the tag cache the ingestor writes to.
func (i *Ingestor) Cache() *TagCache { return i.cache }

// Begin starts a new session for tagIDs in zoneID and re-arms the zone prompt.
func (i *Ingestor) Begin(tagIDs []string, zoneID int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.subscribed = make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		i.subscribed[id] = struct{}{}
	}
	i.zoneID = zoneID
	i.prompted = false
}

// SetZone changes the selected zone without touching the subscription.
func (i *Ingestor) SetZone(zoneID int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.zoneID = zoneID
}

// OnMessage buffers one sample and arms the throttle.
func (i *Ingestor) OnMessage(msg stream.GISData) {
	id := string(msg.ID)
	now := i.now()

	i.mu.Lock()
	if _, ok := i.subscribed[id]; !ok {
		i.mu.Unlock()
		metrics.PositionsIgnored.Inc()
		i.logger.Debug().Str("tag", id).Msg("Ignoring sample for unsubscribed tag")
		return
	}

	zone := i.zoneID
	var mismatch *ZoneMismatch
	if msg.ZoneID != nil {
		zone = *msg.ZoneID
		if zone != i.zoneID && !i.prompted {
			i.prompted = true
			mismatch = &ZoneMismatch{TagID: id, ReportedZone: zone, SelectedZone: i.zoneID}
		}
	}

	i.pending = append(i.pending, models.TagPosition{
		ID:         id,
		X:          msg.X,
		Y:          msg.Y,
		Z:          msg.Z,
		Sequence:   msg.Sequence,
		ZoneID:     zone,
		ReceivedAt: now,
	})
	i.mu.Unlock()

	metrics.PositionsReceived.Inc()
	if mismatch != nil {
		i.logger.Info().
			Str("tag", id).
			Int("reported_zone", mismatch.ReportedZone).
			Int("selected_zone", mismatch.SelectedZone).
			Msg("Tag reported in another zone")
		if i.onZone != nil {
			i.onZone(*mismatch)
		}
	}
	i.throttle.Trigger()
}

// Flush applies the pending buffer now. Flushes never overlap.
func (i *Ingestor) Flush() {
	i.flushMu.Lock()
	defer i.flushMu.Unlock()

	i.mu.Lock()
	batch := i.pending
	i.pending = nil
	i.received += uint64(len(batch))
	i.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	for _, p := range batch {
		i.rate.Add(p.ReceivedAt)
	}
	i.cache.Apply(batch)
	snap := i.cache.Snapshot()
	metrics.RecordFlush(len(batch))
	metrics.TagRate.Set(i.rate.Rate(i.now()))

	latest := latestPerTag(batch)
	i.logger.Debug().
		Int("messages", len(batch)).
		Int("tags", len(latest)).
		Uint64("version", snap.Version).
		Msg("Flushed positions")

	if i.onFlush != nil {
		i.onFlush(latest, snap)
	}
}

// Reset cancels the open window and drops buffered samples, cached tags, and
// the rate window. The received count is kept and the zone prompt stays spent
// until the next Begin.
func (i *Ingestor) Reset() {
	i.throttle.Cancel()

	i.flushMu.Lock()
	defer i.flushMu.Unlock()

	i.mu.Lock()
	i.pending = nil
	i.mu.Unlock()

	i.cache.Clear()
	i.rate.Reset()
	metrics.TagRate.Set(0)
}

// Stop cancels the throttle permanently.
func (i *Ingestor) Stop() {
	i.throttle.Stop()
}

// Stats returns the current counters.
func (i *Ingestor) Stats() Stats {
	i.mu.Lock()
	received, pending := i.received, len(i.pending)
	i.mu.Unlock()

	return Stats{
		Received: received,
		Rate:     i.rate.Rate(i.now()),
		Tags:     i.cache.Len(),
		Pending:  pending,
		Version:  i.cache.Version(),
	}
}

// Serve sweeps expired tags until ctx is cancelled.
func (i *Ingestor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(i.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			i.Stop()
			return ctx.Err()
		case <-ticker.C:
			i.Sweep()
		}
	}
}

// Sweep removes tags silent for longer than the expiry.
func (i *Ingestor) Sweep() []string {
	removed := i.cache.Sweep(i.now(), i.cfg.TagExpiry)
	if len(removed) > 0 {
		i.logger.Info().Strs("tags", removed).Msg("Expired silent tags")
	}
	return removed
}

// String implements fmt.Stringer for supervisor logs.
func (i *Ingestor) String() string { return "ingest" }

// latestPerTag keeps the last sample of each tag, ordered by first arrival.
func latestPerTag(batch []models.TagPosition) []models.TagPosition {
	idx := make(map[string]int, len(batch))
	out := make([]models.TagPosition, 0, len(batch))
	for _, p := range batch {
		if j, ok := idx[p.ID]; ok {
			out[j] = p
			continue
		}
		idx[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}
