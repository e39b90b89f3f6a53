// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package main is the entry point of the tagwatch operator console.

Tagwatch connects to an RTLS, follows a chosen set of tags in one zone,
evaluates trigger containment for every position and pushes map and event
updates to operator browsers.

# Commands

	tagwatch serve                 run the console and its HTTP API
	tagwatch events list           print persisted system events
	tagwatch events clear          drop persisted system events
	tagwatch version               print build information

The events commands open the local store directly and cannot run while
serve holds it.

# Supervision

serve runs every long-lived component under Suture v4:

	RootSupervisor ("tagwatch")
	├── DataSupervisor ("data-layer")
	│   ├── trigger-refresh (periodic zone and trigger reload)
	│   └── storage-gc (Badger value log GC)
	├── StreamSupervisor ("stream-layer")
	│   ├── stream-manager (control and stream sockets)
	│   ├── ingest (tag expiry sweep)
	│   └── portable-renderer (portable trigger polling)
	├── MessagingSupervisor ("messaging-layer")
	│   └── websocket-hub
	└── APISupervisor ("api-layer")
	    └── http-server

# Configuration

Configuration is loaded with Koanf v2: defaults, then the YAML file given by
--config or found on the search path, then environment variables.

	RTLS_CONTROL_URL=ws://rtls.local:8080/control
	RTLS_API_URL=http://rtls.local:8080/api
	HTTP_PORT=8480
	LOG_LEVEL=debug

SIGINT and SIGTERM shut the tree down; the HTTP server drains in-flight
requests for the configured shutdown timeout.
*/
package main
