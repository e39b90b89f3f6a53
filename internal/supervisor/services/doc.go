// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package services adapts console components to the suture v4 service model.

Components that already expose Serve(ctx) error and String() (the stream
manager, the ingest sweeper, the portable renderer, the websocket hub) are
added to the tree directly. This package covers the two lifecycles that need
translating:

HTTP server (HTTPServerService):
  - Binds the listener on every run; a port conflict is a service failure
    that suture backs off from
  - On cancellation drains open requests within a bounded timeout
  - Addr reports the bound address, which matters for ":0" listeners

Periodic task (PeriodicService):
  - Runs a task on a fixed interval, optionally once at start
  - Each run gets its own timeout
  - A failing run is logged and retried on the next tick; it never
    restarts the service

Used for the trigger list refresh and the BadgerDB value log GC.
*/
package services
