// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := NewDebouncer(40*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(10 * time.Millisecond)
	}
	if !d.Pending() {
		t.Fatal("expected pending call during burst")
	}
	time.Sleep(120 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	if d.Pending() {
		t.Error("nothing should be pending after firing")
	}
}

func TestDebouncerCancelAndStop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Cancel()
	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatal("cancelled debouncer fired")
	}

	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 1 {
		t.Fatalf("debouncer should be reusable after Cancel, calls = %d", calls.Load())
	}

	d.Stop()
	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 1 {
		t.Error("stopped debouncer fired")
	}
}

func TestThrottlerOneFlushPerWindow(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	th := NewThrottler(50*time.Millisecond, func() { calls.Add(1) })
	defer th.Stop()

	for i := 0; i < 12; i++ {
		th.Trigger()
	}
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatal("throttler fired before window closed")
	}
	time.Sleep(80 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}

	th.Trigger()
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2 after second window", got)
	}
}

func TestThrottlerCancelAndStop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	th := NewThrottler(20*time.Millisecond, func() { calls.Add(1) })

	th.Trigger()
	if !th.Pending() {
		t.Fatal("window should be open")
	}
	th.Cancel()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatal("cancelled window fired")
	}

	th.Stop()
	th.Trigger()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("stopped throttler fired")
	}
}
