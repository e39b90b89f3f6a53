// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

// Package models holds the records shared across the stream, ingest,
// containment, and rendering layers: tag positions, triggers, zones, and the
// trigger events written to the event log.
package models
