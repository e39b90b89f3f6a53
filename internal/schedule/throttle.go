// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package schedule

import (
	"sync"
	"time"
)

// Throttler runs fn at most once per window. The first Trigger in an idle
// state opens a window; fn runs when the window closes. Triggers that arrive
// while a window is open are absorbed by it.
type Throttler struct {
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewThrottler creates a trailing-edge throttler. fn runs on its own goroutine.
func NewThrottler(window time.Duration, fn func()) *Throttler {
	return &Throttler{window: window, fn: fn}
}

// Trigger opens a window if none is open.
func (t *Throttler) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.timer != nil {
		return
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.window, func() { t.fire(gen) })
}

func (t *Throttler) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	t.fn()
}

// Pending reports whether a window is open.
func (t *Throttler) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Cancel closes the current window without running fn.
func (t *Throttler) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

// Stop cancels and disables the throttler permanently.
func (t *Throttler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.stopped = true
}

func (t *Throttler) cancelLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}
