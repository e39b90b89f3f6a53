// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/tomtom215/tagwatch/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return one non-nil instance")
	}
}

func validDraft() models.TriggerDraft {
	return models.TriggerDraft{
		Name:        "Loading dock",
		DirectionID: models.DirectionOnEnter,
		ZoneID:      1,
		Vertices:    []models.Point3{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}},
	}
}

func TestTriggerDraftValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*models.TriggerDraft)
		wantField string
		wantTag   string
	}{
		{"valid static", func(*models.TriggerDraft) {}, "", ""},
		{"valid portable", func(d *models.TriggerDraft) {
			d.IsPortable = true
			d.AssignedTagID = models.StrPtr("T1")
			d.Radius = models.FloatPtr(2.5)
			d.Vertices = nil
		}, "", ""},
		{"missing name", func(d *models.TriggerDraft) { d.Name = "" }, "name", "required"},
		{"blank name", func(d *models.TriggerDraft) { d.Name = "   " }, "name", "notblank"},
		{"long name", func(d *models.TriggerDraft) { d.Name = strings.Repeat("x", 101) }, "name", "max"},
		{"direction out of range", func(d *models.TriggerDraft) { d.DirectionID = 6 }, "direction_id", "lte"},
		{"missing zone", func(d *models.TriggerDraft) { d.ZoneID = 0 }, "zone_id", "required"},
		{"portable without tag", func(d *models.TriggerDraft) {
			d.IsPortable = true
			d.Radius = models.FloatPtr(1)
		}, "assigned_tag_id", "required_if"},
		{"portable without radius", func(d *models.TriggerDraft) {
			d.IsPortable = true
			d.AssignedTagID = models.StrPtr("T1")
		}, "radius", "required_if"},
		{"zero radius", func(d *models.TriggerDraft) {
			d.IsPortable = true
			d.AssignedTagID = models.StrPtr("T1")
			d.Radius = models.FloatPtr(0)
		}, "radius", "gt"},
		{"NaN vertex", func(d *models.TriggerDraft) { d.Vertices[1].X = math.NaN() }, "x", "finite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := validDraft()
			d.Vertices = append([]models.Point3(nil), d.Vertices...)
			tt.mutate(&d)

			err := ValidateStruct(&d)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s error on %s", tt.wantTag, tt.wantField)
			}
			for _, e := range err.Errors() {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					return
				}
			}
			t.Errorf("expected %s/%s, got %v", tt.wantField, tt.wantTag, err)
		})
	}
}

func TestMapPreferencesValidation(t *testing.T) {
	t.Parallel()

	p := models.DefaultMapPreferences()
	if err := ValidateStruct(&p); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	p.Zoom = 11
	if err := ValidateStruct(&p); err == nil || err.Errors()[0].Field() != "zoom" {
		t.Errorf("zoom 11 accepted: %v", err)
	}

	p = models.DefaultMapPreferences()
	p.CenterX = math.Inf(1)
	if err := ValidateStruct(&p); err == nil || err.Errors()[0].Tag() != "finite" {
		t.Errorf("infinite centre accepted: %v", err)
	}
}

type keyRequest struct {
	Key string `json:"key" validate:"required,mapkey"`
}

func TestMapKeyValidation(t *testing.T) {
	t.Parallel()

	for _, k := range MapKeys {
		if err := ValidateStruct(&keyRequest{Key: k}); err != nil {
			t.Errorf("key %q rejected: %v", k, err)
		}
	}
	err := ValidateStruct(&keyRequest{Key: "q"})
	if err == nil {
		t.Fatal("unbound key accepted")
	}
	if msg := err.Error(); msg != "key is not a bound map shortcut" {
		t.Errorf("message = %q", msg)
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&keyRequest{})
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" || apiErr.Message != "key is required" {
		t.Errorf("single = %+v", apiErr)
	}
	if apiErr.Details["field"] != "key" {
		t.Errorf("details = %v", apiErr.Details)
	}

	d := validDraft()
	d.Name = ""
	d.ZoneID = 0
	multi := ValidateStruct(&d).ToAPIError()
	if _, ok := multi.Details["fields"]; !ok {
		t.Errorf("multi details = %v", multi.Details)
	}
	if !strings.Contains(multi.Message, "name: name is required") || !strings.Contains(multi.Message, "zone_id:") {
		t.Errorf("multi message = %q", multi.Message)
	}

	empty := (&RequestValidationError{}).ToAPIError()
	if empty.Message != "Validation failed" {
		t.Errorf("empty = %+v", empty)
	}
}

type sizes struct {
	Label  string   `json:"label" validate:"min=2"`
	Points []string `json:"points" validate:"min=3"`
	Count  int      `json:"count" validate:"max=5"`
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&sizes{Label: "a", Points: []string{"x"}, Count: 9})
	if err == nil {
		t.Fatal("expected errors")
	}
	want := map[string]string{
		"label":  "label must be at least 2 characters",
		"points": "points must be at least 3 items",
		"count":  "count must be at most 5",
	}
	for _, e := range err.Errors() {
		if want[e.Field()] != e.Error() {
			t.Errorf("%s: %q, want %q", e.Field(), e.Error(), want[e.Field()])
		}
	}
}
