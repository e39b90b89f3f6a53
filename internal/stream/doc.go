// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package stream owns the WebSocket session with the RTLS.

The session has two stages. A control socket is opened and a BeginStream
request names the subscribed tags and the zone. The server either streams data
on the control socket or answers with PortRedirect, after which a second
stream socket is opened on the announced port and the same subscription is
sent there.

	Idle -> ControlConnecting -> ControlOpen -> StreamConnecting -> StreamOpen
	                 \                 \                \              \
	                  +-----------------+----------------+--------------+-> Reconnecting / Disconnected

Every HeartBeat is echoed on the socket it arrived on before the next read.
Heartbeats and data refresh the last-data-seen clock; the watchdog started by
Run marks the session not connected when that clock goes stale, even if the
sockets still look open.

An unexpected close schedules a reconnect of that socket with a fixed delay,
up to a fixed number of attempts. Disconnect clears the reconnect flag before
touching any socket, so close events raced by a manual disconnect never
schedule a retry. Each socket carries the session generation it was opened
in; events from an older generation are ignored.
*/
package stream
