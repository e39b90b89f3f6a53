// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package console

import (
	"errors"

	"github.com/tomtom215/tagwatch/internal/registry"
)

// Operator action failures. Callers match them with errors.Is; the wrapped
// message says what to fix.
var (
	ErrTooFewPoints     = errors.New("a trigger polygon needs at least 3 points")
	ErrOutsideZone      = errors.New("coordinates are outside the zone boundary")
	ErrDuplicateName    = errors.New("a trigger with that name already exists")
	ErrNoZone           = errors.New("no zone selected")
	ErrUnknownZone      = errors.New("unknown zone")
	ErrPortableMove     = errors.New("portable triggers follow their tag and cannot be moved")
	ErrTriggerNotFound  = registry.ErrTriggerNotFound
	ErrUnknownMapKey    = errors.New("unknown map key")
	ErrZoneBoundsAbsent = errors.New("zone has no outline")
)
