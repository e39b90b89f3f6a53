// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package websocket pushes console updates to operator browsers.

It uses gorilla/websocket with a hub-client architecture: one Hub goroutine
owns the client set and fans broadcast messages out to every client's send
queue; each Client runs a read pump and a write pump.

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Outbound message types:

  - map_ops: ordered layer operations from the map surface
  - trigger_event: one emitted trigger event
  - system_event: one line appended to the system log
  - connection_state: RTLS session state change
  - zone_mismatch: the stream reports a tag in another zone than selected
  - highlight: trigger ID to highlight, 0 to clear
  - snapshot: initial state sent to a client right after it connects
  - pong: reply to a client ping

Inbound message types:

  - ping
  - map_key: a keyboard shortcut forwarded to the map surface

A client whose send queue is full is dropped rather than blocking the hub.

Timeouts:
  - writeWait: 10 seconds
  - pongWait: 60 seconds
  - pingPeriod: 54 seconds
  - maxMessageSize: 64 KB inbound
*/
package websocket
