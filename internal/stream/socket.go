// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// socketKind tells the two session sockets apart.
type socketKind int

const (
	kindControl socketKind = iota
	kindStream
)

func (k socketKind) String() string {
	if k == kindStream {
		return "stream"
	}
	return "control"
}

// socket is one live WebSocket connection. Reads happen on a single goroutine;
// writes are serialized by writeMu because heartbeat echoes and subscription
// requests can race.
type socket struct {
	kind    socketKind
	gen     uint64
	url     string
	conn    *websocket.Conn
	timeout time.Duration
	done    chan struct{} // closed when the read loop exits

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newSocket(kind socketKind, gen uint64, url string, conn *websocket.Conn, writeTimeout time.Duration) *socket {
	return &socket{
		kind:    kind,
		gen:     gen,
		url:     url,
		conn:    conn,
		timeout: writeTimeout,
		done:    make(chan struct{}),
	}
}

// writeJSON encodes v and sends it as one text frame.
func (s *socket) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", s.kind, err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s message: %w", s.kind, err)
	}
	return nil
}

// close sends a normal-closure frame and closes the connection. Safe to call
// more than once.
func (s *socket) close() {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
}
