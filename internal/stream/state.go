// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package stream

// State is the coarse state of the RTLS session.
type State int

const (
	StateIdle State = iota
	StateControlConnecting
	StateControlOpen
	StateStreamConnecting
	StateStreamOpen
	StateReconnecting
	StateDisconnected
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateControlConnecting: "control_connecting",
	StateControlOpen:       "control_open",
	StateStreamConnecting:  "stream_connecting",
	StateStreamOpen:        "stream_open",
	StateReconnecting:      "reconnecting",
	StateDisconnected:      "disconnected",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// StateNames lists every state label, for metrics.
func StateNames() []string {
	return append([]string(nil), stateNames[:]...)
}

// transitions lists the allowed successor states. A new Connect may start
// over from any state.
var transitions = map[State][]State{
	StateIdle:              {StateControlConnecting},
	StateControlConnecting: {StateControlOpen, StateStreamConnecting, StateStreamOpen, StateReconnecting, StateDisconnected},
	StateControlOpen:       {StateControlConnecting, StateStreamConnecting, StateStreamOpen, StateReconnecting, StateDisconnected},
	StateStreamConnecting:  {StateControlConnecting, StateControlOpen, StateStreamOpen, StateReconnecting, StateDisconnected},
	StateStreamOpen:        {StateControlConnecting, StateStreamConnecting, StateReconnecting, StateDisconnected},
	StateReconnecting:      {StateControlConnecting, StateControlOpen, StateStreamConnecting, StateStreamOpen, StateDisconnected},
	StateDisconnected:      {StateControlConnecting, StateIdle},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Status is a point-in-time view of the session.
type Status struct {
	State        State    `json:"-"`
	StateName    string   `json:"state"`
	Connected    bool     `json:"connected"`
	TagIDs       []string `json:"tag_ids"`
	ZoneID       int      `json:"zone_id"`
	StreamURL    string   `json:"stream_url,omitempty"`
	LastDataSeen int64    `json:"last_data_seen_ms"`
}
