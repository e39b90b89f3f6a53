// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package stream

import (
	"bytes"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tagwatch/internal/models"
)

// Message types on the wire.
const (
	TypeRequest      = "request"
	TypePortRedirect = "PortRedirect"
	TypeHeartBeat    = "HeartBeat"
	TypeGISData      = "GISData"
	TypeTriggerEvent = "TriggerEvent"

	RequestBeginStream = "BeginStream"
)

// Text is a JSON scalar kept as a string. The RTLS is not consistent about
// quoting IDs and timestamps.
type Text string

// UnmarshalJSON accepts strings, numbers, booleans, and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("expected scalar, got %s", data)
	default:
		*t = Text(data)
	}
	return nil
}

type envelope struct {
	Type string `json:"type"`
}

// StreamParam subscribes one tag.
type StreamParam struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// BeginStream is the subscription request.
type BeginStream struct {
	Type    string        `json:"type"`
	Request string        `json:"request"`
	ReqID   string        `json:"reqid"`
	Params  []StreamParam `json:"params"`
	ZoneID  int           `json:"zone_id"`
}

// NewBeginStream builds the subscription for tagIDs in zoneID.
func NewBeginStream(reqID string, tagIDs []string, zoneID int) BeginStream {
	params := make([]StreamParam, len(tagIDs))
	for i, id := range tagIDs {
		params[i] = StreamParam{ID: id, Data: "true"}
	}
	return BeginStream{
		Type:    TypeRequest,
		Request: RequestBeginStream,
		ReqID:   reqID,
		Params:  params,
		ZoneID:  zoneID,
	}
}

// PortRedirect tells the client where the data stream lives.
type PortRedirect struct {
	Type        string `json:"type"`
	Port        int    `json:"port"`
	StreamType  string `json:"stream_type,omitempty"`
	ManagerName string `json:"manager_name,omitempty"`
}

// HeartBeatData carries the ID that must be echoed back.
type HeartBeatData struct {
	HeartbeatID json.RawMessage `json:"heartbeat_id"`
}

// HeartBeat is sent by the server and echoed by the client.
type HeartBeat struct {
	Type string        `json:"type"`
	TS   int64         `json:"ts"`
	Data HeartBeatData `json:"data"`
}

// GISData is one position sample.
type GISData struct {
	Type     string          `json:"type"`
	ID       Text            `json:"ID"`
	X        float64         `json:"X"`
	Y        float64         `json:"Y"`
	Z        float64         `json:"Z"`
	Sequence models.Sequence `json:"Sequence"`
	ZoneID   *int            `json:"zone_id,omitempty"`
}

// TriggerEvent is an event evaluated by the RTLS itself.
type TriggerEvent struct {
	Type          string `json:"type"`
	TriggerID     int    `json:"trigger_id"`
	TagID         Text   `json:"tag_id"`
	AssignedTagID *Text  `json:"assigned_tag_id,omitempty"`
	Direction     Text   `json:"direction"`
	Timestamp     Text   `json:"timestamp"`
	ZoneID        *int   `json:"zone_id,omitempty"`
}

// Key identifies the event for replay detection.
func (e TriggerEvent) Key() string {
	return fmt.Sprintf("%d|%s|%s|%s", e.TriggerID, e.TagID, e.Direction, e.Timestamp)
}

// decodeType returns the "type" field of a raw message.
func decodeType(raw []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", err
	}
	if env.Type == "" {
		return "", fmt.Errorf("message has no type")
	}
	return env.Type, nil
}

// RedirectURL builds the stream socket URL for a PortRedirect received on the
// control socket at controlURL.
func RedirectURL(controlURL *url.URL, msg PortRedirect, defaultManager string) string {
	scheme := "ws"
	if controlURL.Scheme == "wss" {
		scheme = "wss"
	}
	manager := strings.TrimSpace(msg.ManagerName)
	if manager == "" {
		manager = defaultManager
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(controlURL.Hostname(), strconv.Itoa(msg.Port)),
		Path:   "/ws/" + manager,
	}
	return u.String()
}
