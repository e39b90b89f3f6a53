// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package models

import "fmt"

// Direction selects the rule deciding when a containment change emits an event.
type Direction int

const (
	DirectionWhileIn  Direction = 1
	DirectionWhileOut Direction = 2
	DirectionOnCross  Direction = 3
	DirectionOnEnter  Direction = 4
	DirectionOnExit   Direction = 5
)

// Valid reports whether d is one of the five known directions.
func (d Direction) Valid() bool {
	return d >= DirectionWhileIn && d <= DirectionOnExit
}

func (d Direction) String() string {
	switch d {
	case DirectionWhileIn:
		return "WhileIn"
	case DirectionWhileOut:
		return "WhileOut"
	case DirectionOnCross:
		return "OnCross"
	case DirectionOnEnter:
		return "OnEnter"
	case DirectionOnExit:
		return "OnExit"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// DirectionInfo is one row of the directions list served by the REST layer.
type DirectionInfo struct {
	ID   Direction `json:"direction_id"`
	Name string    `json:"name"`
}

// Point3 is a facility coordinate.
type Point3 struct {
	X float64 `json:"x" validate:"finite"`
	Y float64 `json:"y" validate:"finite"`
	Z float64 `json:"z" validate:"finite"`
}

// Trigger is a geofence fetched from the REST layer. Static triggers carry
// Vertices; portable triggers carry AssignedTagID and Radius.
type Trigger struct {
	TriggerID     int       `json:"trigger_id"`
	Name          string    `json:"name"`
	DirectionID   Direction `json:"direction_id"`
	ZoneID        *int      `json:"zone_id"`
	IsPortable    bool      `json:"is_portable"`
	AssignedTagID *string   `json:"assigned_tag_id"`
	Radius        *float64  `json:"radius"`
	Vertices      []Point3  `json:"vertices"`
	ZMin          *float64  `json:"z_min,omitempty"`
	ZMax          *float64  `json:"z_max,omitempty"`
}

// AppliesToZone reports whether the trigger is in scope for a tag in zoneID.
// Triggers without a zone apply everywhere.
func (t Trigger) AppliesToZone(zoneID int) bool {
	return t.ZoneID == nil || *t.ZoneID == zoneID
}

// AssignedTag returns the assigned tag ID, or "" when none is set.
func (t Trigger) AssignedTag() string {
	if t.AssignedTagID == nil {
		return ""
	}
	return *t.AssignedTagID
}

// RadiusOr returns the radius or def when unset.
func (t Trigger) RadiusOr(def float64) float64 {
	if t.Radius == nil {
		return def
	}
	return *t.Radius
}

// IsPortableCircle reports whether the trigger is evaluated as a tag-centred circle.
func (t Trigger) IsPortableCircle() bool {
	return t.IsPortable && t.AssignedTag() != ""
}

// IntPtr and friends build optional fields in tests and request builders.
func IntPtr(v int) *int { return &v }

// StrPtr returns &v.
func StrPtr(v string) *string { return &v }

// FloatPtr returns &v.
func FloatPtr(v float64) *float64 { return &v }

// TriggerDraft is a trigger being created by an operator.
type TriggerDraft struct {
	Name          string    `json:"name" validate:"required,notblank,max=100"`
	DirectionID   Direction `json:"direction_id" validate:"required,gte=1,lte=5"`
	ZoneID        int       `json:"zone_id" validate:"required,gt=0"`
	IsPortable    bool      `json:"is_portable"`
	AssignedTagID *string   `json:"assigned_tag_id,omitempty" validate:"required_if=IsPortable true,omitempty,min=1"`
	Radius        *float64  `json:"radius,omitempty" validate:"required_if=IsPortable true,omitempty,gt=0"`
	Vertices      []Point3  `json:"vertices,omitempty" validate:"omitempty,dive"`
	ZMin          *float64  `json:"z_min,omitempty"`
	ZMax          *float64  `json:"z_max,omitempty"`
}
