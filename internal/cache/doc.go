// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

// Package cache provides small in-memory structures used on the hot path:
// an LRU with TTL for event deduplication and a timestamp window for rate
// calculation. Both are safe for concurrent use.
package cache
