// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type countingTask struct {
	calls atomic.Int32
	err   error
}

func (c *countingTask) run(ctx context.Context) error {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("run without deadline")
	}
	return c.err
}

func TestPeriodicService_Interface(t *testing.T) {
	var _ suture.Service = (*PeriodicService)(nil)
}

func TestPeriodicService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        PeriodicConfig
		err        error
		runFor     time.Duration
		minCalls   int32
		maxCalls   int32
	}{
		{"run on start", PeriodicConfig{Interval: time.Hour, RunOnStart: true}, nil, 30 * time.Millisecond, 1, 1},
		{"no run on start", PeriodicConfig{Interval: time.Hour}, nil, 30 * time.Millisecond, 0, 0},
		{"ticks", PeriodicConfig{Interval: 10 * time.Millisecond}, nil, 100 * time.Millisecond, 3, 12},
		{"errors keep ticking", PeriodicConfig{Interval: 10 * time.Millisecond}, errors.New("rtls down"), 100 * time.Millisecond, 3, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			task := &countingTask{err: tt.err}
			svc := NewPeriodicService("test-task", task.run, tt.cfg)

			ctx, cancel := context.WithTimeout(context.Background(), tt.runFor)
			defer cancel()
			if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() = %v", err)
			}

			got := task.calls.Load()
			if got < tt.minCalls || got > tt.maxCalls {
				t.Errorf("calls = %d, want %d..%d", got, tt.minCalls, tt.maxCalls)
			}
		})
	}
}

func TestPeriodicService_TimeoutDefaultsToInterval(t *testing.T) {
	t.Parallel()

	svc := NewPeriodicService("gc", func(context.Context) error { return nil }, PeriodicConfig{Interval: time.Minute})
	if svc.config.Timeout != time.Minute {
		t.Errorf("timeout = %v", svc.config.Timeout)
	}
	if svc.String() != "gc" {
		t.Errorf("String() = %q", svc.String())
	}
}
