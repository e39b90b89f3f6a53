// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package rtls is the REST client for the RTLS server.

It covers the endpoints the console consumes: trigger list, directions,
trigger detail, create, delete, move, the point-in-trigger test, and the zone
list, hierarchy, vertices, and point-in-zone lookups.

Every call runs through a sony/gobreaker circuit breaker. Only transport
failures and 5xx responses count against the breaker; a 4xx is the server
doing its job.

Non-2xx responses become *APIError. The human-readable message is parsed from
the JSON "detail" field and the error is sorted into one of the categories
operators act on differently: boundary violation, duplicate name, not found,
other validation, and server failure.
*/
package rtls
