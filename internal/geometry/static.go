// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package geometry

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/tagwatch/internal/geo"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/rtls"
)

// maxParallelFetches bounds concurrent detail requests.
const maxParallelFetches = 6

// DetailSource fetches trigger vertices.
type DetailSource interface {
	GetTrigger(ctx context.Context, triggerID int) (*rtls.TriggerDetail, error)
}

// StaticRenderer builds polygon descriptors for static triggers. It only runs
// when the trigger list or the selected zone changes.
type StaticRenderer struct {
	src    DetailSource
	logger *zerolog.Logger

	mu      sync.Mutex
	current []Descriptor
}

// NewStaticRenderer creates a renderer fetching from src.
func NewStaticRenderer(src DetailSource) *StaticRenderer {
	return &StaticRenderer{src: src, logger: logging.Component("geometry")}
}

// Render fetches the vertices of every static trigger in parallel and returns
// descriptors ordered by ID. Triggers whose fetch fails or that have no
// vertices are left out.
func (r *StaticRenderer) Render(ctx context.Context, triggers []models.Trigger) ([]Descriptor, error) {
	var static []models.Trigger
	for _, t := range triggers {
		if !t.IsPortable {
			static = append(static, t)
		}
	}

	slots := make([]*Descriptor, len(static))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i, t := range static {
		g.Go(func() error {
			detail, err := r.src.GetTrigger(gctx, t.TriggerID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Warn().Err(err).Int("trigger_id", t.TriggerID).Msg("Skipping trigger, detail fetch failed")
				return nil
			}
			if len(detail.Vertices) == 0 {
				return nil
			}
			d := Descriptor{
				ID:        t.TriggerID,
				Name:      t.Name,
				LatLngs:   geo.RingLatLngs(detail.Vertices),
				UniqueKey: StaticKey(t.TriggerID, detail.Vertices),
			}
			d = d.Restyled()
			slots[i] = &d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Descriptor, 0, len(slots))
	for _, d := range slots {
		if d != nil {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	r.mu.Lock()
	r.current = out
	r.mu.Unlock()

	r.logger.Debug().Int("triggers", len(static)).Int("rendered", len(out)).Msg("Rendered static triggers")
	return out, nil
}

// Current returns the last rendered descriptors.
func (r *StaticRenderer) Current() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Descriptor(nil), r.current...)
}
