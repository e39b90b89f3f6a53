// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package models

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Sequence is a tag message sequence number. The RTLS sends either an integer
// or the string "N/A"; Valid is false for the latter.
type Sequence struct {
	Value int64
	Valid bool
}

// SeqOf returns a valid sequence number.
func SeqOf(v int64) Sequence { return Sequence{Value: v, Valid: true} }

// String renders the sequence the way it appears in event text.
func (s Sequence) String() string {
	if !s.Valid {
		return "N/A"
	}
	return strconv.FormatInt(s.Value, 10)
}

// MarshalJSON writes an integer or "N/A".
func (s Sequence) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte(`"N/A"`), nil
	}
	return []byte(strconv.FormatInt(s.Value, 10)), nil
}

// UnmarshalJSON accepts integers, numeric strings, "N/A", and null.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Sequence{}
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if v, err := strconv.ParseInt(str, 10, 64); err == nil {
			*s = SeqOf(v)
			return nil
		}
		*s = Sequence{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("sequence: %w", err)
	}
	*s = SeqOf(int64(f))
	return nil
}

// TagPosition is the last known position of a tag. It is replaced wholesale on
// every ingest flush.
type TagPosition struct {
	ID         string    `json:"id"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Z          float64   `json:"z"`
	Sequence   Sequence  `json:"sequence_number"`
	ZoneID     int       `json:"zone_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// ReceivedAtMs returns the receive timestamp in epoch milliseconds.
func (p TagPosition) ReceivedAtMs() int64 {
	return p.ReceivedAt.UnixMilli()
}
