// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package cache

import (
	"sync"
	"time"
)

// RateWindow keeps the timestamps seen during the trailing window and derives
// an arrival rate from them.
type RateWindow struct {
	mu     sync.Mutex
	window time.Duration
	stamps []time.Time // ascending
}

// NewRateWindow creates a window of the given length.
func NewRateWindow(window time.Duration) *RateWindow {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &RateWindow{window: window}
}

// Add records t and drops stamps older than the window relative to t.
func (w *RateWindow) Add(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Out-of-order stamps are clamped so the slice stays sorted.
	if n := len(w.stamps); n > 0 && t.Before(w.stamps[n-1]) {
		t = w.stamps[n-1]
	}
	w.stamps = append(w.stamps, t)
	w.trim(t)
}

// Rate returns (n-1) / span-in-seconds for the n stamps inside the window
// ending at now, or 0 when fewer than two stamps remain or they coincide.
func (w *RateWindow) Rate(now time.Time) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trim(now)
	n := len(w.stamps)
	if n < 2 {
		return 0
	}
	span := w.stamps[n-1].Sub(w.stamps[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span
}

// Len returns the number of stamps held.
func (w *RateWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.stamps)
}

// Reset empties the window.
func (w *RateWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stamps = nil
}

func (w *RateWindow) trim(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.stamps) && w.stamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}
