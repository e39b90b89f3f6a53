// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

// Package storage persists the console's local state in BadgerDB.
//
// Two fixed keys are used, each holding a JSON document:
//
//	system_events    []string           the system event log
//	map_preferences  MapPreferences     operator display settings
//
// Loads are best effort. A value that cannot be decoded is logged and treated
// as absent so a corrupt entry never prevents startup.
package storage
