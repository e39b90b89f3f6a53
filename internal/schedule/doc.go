// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

// Package schedule provides the two timer primitives the pipeline is built on.
//
// A Debouncer runs its function once input has been quiet for the configured
// delay. A Throttler runs its function at most once per window, at the end of
// the window in which it was first triggered.
//
// Both are safe for concurrent use. Cancel drops whatever is pending and
// leaves the primitive usable. Stop cancels and makes every later Trigger a
// no-op; callers stop their primitives on disconnect and shutdown so no timer
// fires against stale state.
package schedule
