// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package ingest buffers position samples from the RTLS stream and applies them
to the shared tag cache in throttled batches.

Every accepted sample is appended to a pending buffer at once. A trailing
throttle lets at most one flush run per window; the flush applies the whole
buffer in arrival order, so bursts are coalesced and never dropped. After each
flush the latest position of every tag in the batch is handed to the flush
callback, which drives the containment engine.

Samples for tags outside the subscription are ignored. The first sample that
reports a zone other than the selected one raises a single prompt per
session; the zone is never switched automatically.

TagCache is read by the containment engine, the geometry renderers, and the
rate calculator. Readers take a Snapshot, which is an immutable copy tagged
with the cache version of the flush that produced it.
*/
package ingest
