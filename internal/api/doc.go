// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package api exposes the operator console over HTTP and WebSocket.

Routes:

	GET    /api/status                 stream, ingest and zone state
	POST   /api/connect                start a session for tag IDs
	POST   /api/disconnect             end the session
	POST   /api/zone                   switch the selected zone
	GET    /api/zones                  known zones
	GET    /api/triggers               known triggers
	POST   /api/triggers               create a trigger
	DELETE /api/triggers/{id}          delete a trigger
	POST   /api/triggers/{id}/move     move a static trigger
	POST   /api/triggers/refresh       reload zones and triggers
	GET    /api/events/recent          recent trigger events
	GET    /api/events                 system events
	DELETE /api/events                 clear system events
	PUT    /api/settings/show-events   toggle event emission
	GET    /api/map                    layers, features and viewport
	POST   /api/map/view               set the viewport
	POST   /api/map/key                apply a keyboard shortcut
	GET    /api/preferences            saved map preferences
	PUT    /api/preferences            replace map preferences
	GET    /ws                         live updates
	GET    /metrics                    Prometheus metrics

Every JSON response uses the APIResponse envelope. Console errors map to
status codes in writeConsoleError.
*/
package api
