// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestSequenceUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		want  Sequence
		label string
	}{
		{`42`, SeqOf(42), "42"},
		{`"17"`, SeqOf(17), "17"},
		{`"N/A"`, Sequence{}, "N/A"},
		{`null`, Sequence{}, "N/A"},
	}

	for _, tt := range tests {
		var s Sequence
		if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if s != tt.want {
			t.Errorf("unmarshal %s = %+v, want %+v", tt.in, s, tt.want)
		}
		if s.String() != tt.label {
			t.Errorf("String() = %q, want %q", s.String(), tt.label)
		}
	}
}

func TestTriggerAppliesToZone(t *testing.T) {
	t.Parallel()

	global := Trigger{TriggerID: 1}
	scoped := Trigger{TriggerID: 2, ZoneID: IntPtr(5)}

	if !global.AppliesToZone(9) {
		t.Error("trigger without zone should apply everywhere")
	}
	if !scoped.AppliesToZone(5) || scoped.AppliesToZone(6) {
		t.Error("zoned trigger should only apply to its zone")
	}
}

func TestTriggerEventStringCarriesVerbs(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := TriggerEvent{TriggerID: 7, TriggerName: "Dock", TagID: "T1", ZoneName: "Warehouse", Sequence: SeqOf(9), At: at}

	cases := []struct {
		verb     Verb
		crossing string
		want     string
	}{
		{VerbEntered, "", "Tag T1 entered trigger 7 (Dock) in Warehouse (seq 9)"},
		{VerbExited, "", "exited"},
		{VerbIsInside, "", "is inside"},
		{VerbIsOutside, "", "is outside"},
		{VerbCrossed, "Exit", "crossed trigger 7 (Dock) Exit"},
	}
	for _, c := range cases {
		ev := base
		ev.Verb = c.verb
		ev.Crossing = c.crossing
		if s := ev.String(); !strings.Contains(s, c.want) {
			t.Errorf("%s: %q does not contain %q", c.verb, s, c.want)
		}
	}
}
