// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tagwatch/internal/logging"
)

// Task is one unit of periodic work.
type Task func(ctx context.Context) error

// PeriodicConfig holds the schedule of a PeriodicService.
type PeriodicConfig struct {
	// Interval between runs. Required.
	Interval time.Duration

	// RunOnStart runs the task once before the first tick.
	RunOnStart bool

	// Timeout bounds a single run. Zero means the interval.
	Timeout time.Duration
}

// PeriodicService runs a task on a fixed schedule under supervision.
type PeriodicService struct {
	task   Task
	config PeriodicConfig
	logger zerolog.Logger
	name   string
}

// NewPeriodicService creates a service named name.
func NewPeriodicService(name string, task Task, cfg PeriodicConfig) *PeriodicService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	return &PeriodicService{
		task:   task,
		config: cfg,
		logger: logging.With().Str("service", name).Logger(),
		name:   name,
	}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	s.logger.Debug().
		Bool("run_on_start", s.config.RunOnStart).
		Dur("interval", s.config.Interval).
		Msg("periodic service starting")

	if s.config.RunOnStart {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *PeriodicService) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	if err := s.task(runCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Err(err).Msg("periodic task failed (will retry on schedule)")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("periodic task complete")
}

// String implements fmt.Stringer for supervisor logs.
func (s *PeriodicService) String() string {
	return s.name
}
